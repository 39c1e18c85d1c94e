package entities

// Chat is the support conversation between a customer and an
// administrator. It is keyed by the customer's id, so each customer has at
// most one.
type Chat struct {
	ID                string   `dynamodbav:"id"`
	ParticipantIDs    []string `dynamodbav:"participants"`
	LastMessage       string   `dynamodbav:"lastMessage"`
	LastMessageReadBy []string `dynamodbav:"lastMessageReadBy"`
	Timestamps
}

func (c Chat) GetID() string { return c.ID }

// HasParticipant reports whether userID takes part in the chat
func (c Chat) HasParticipant(userID string) bool {
	for _, id := range c.ParticipantIDs {
		if id == userID {
			return true
		}
	}
	return false
}

// MarkRead records that userID has read the last message and reports
// whether the chat changed
func (c *Chat) MarkRead(userID string) bool {
	for _, id := range c.LastMessageReadBy {
		if id == userID {
			return false
		}
	}
	c.LastMessageReadBy = append(c.LastMessageReadBy, userID)
	return true
}

// Message is one message of a chat
type Message struct {
	ID          string `dynamodbav:"id" json:"_id"`
	ChatID      string `dynamodbav:"chatId" json:"chatId"`
	Text        string `dynamodbav:"text" json:"text"`
	IsOnlyEmoji bool   `dynamodbav:"isOnlyEmoji" json:"isOnlyEmoji"`
	SenderID    string `dynamodbav:"senderId" json:"senderId"`
	Timestamps
}

func (m Message) GetID() string { return m.ID }
