package services

import (
	"context"
	"sort"

	"go.uber.org/zap"

	"storefront-backend/domain/core/entities"
	"storefront-backend/pkg/utils"
)

// topRevenueLimit is the number of best selling products on the dashboard
const topRevenueLimit = 4

// TopRevenueProducts holds parallel name and amount series
type TopRevenueProducts struct {
	Names   []string  `json:"topRevenueProductNames"`
	Amounts []float64 `json:"topRevenueProductAmount"`
}

// Dashboard summarises sales for administrators. Amounts exclude the
// delivery charge and cancelled orders.
type Dashboard struct {
	TodayOrdersAmount     float64            `json:"todayOrdersAmount"`
	MonthOrdersAmount     float64            `json:"monthOrdersAmount"`
	TotalOrdersAmount     float64            `json:"totalOrdersAmount"`
	TotalOrdersCount      int                `json:"totalOrdersCount"`
	PendingOrdersCount    int                `json:"pendingOrdersCount"`
	ProcessingOrdersCount int                `json:"processingOrdersCount"`
	DeliveredOrdersCount  int                `json:"deliveredOrdersCount"`
	Sales                 [12]float64        `json:"sales"`
	TopRevenueProducts    TopRevenueProducts `json:"topRevenueProducts"`
}

// DashboardService computes administrator statistics from the order list
type DashboardService struct {
	lists  *Collections
	logger *zap.Logger
	now    utils.Clock
}

// NewDashboardService creates a new dashboard service
func NewDashboardService(lists *Collections, logger *zap.Logger, clock utils.Clock) *DashboardService {
	return &DashboardService{
		lists:  lists,
		logger: logger.Named("dashboard"),
		now:    clock,
	}
}

type productRevenue struct {
	name   string
	amount float64
}

// Get computes the dashboard at the current time
func (s *DashboardService) Get(ctx context.Context) (Dashboard, error) {
	orders, err := s.lists.Orders.All(ctx)
	if err != nil {
		return Dashboard{}, err
	}

	now := s.now()
	today := utils.StartOfDay(now)
	tomorrow := today.AddDate(0, 0, 1)
	month := utils.StartOfMonth(now)

	var d Dashboard
	revenue := map[string]*productRevenue{}
	for _, o := range orders {
		d.TotalOrdersCount++
		switch o.Status {
		case entities.OrderPending:
			d.PendingOrdersCount++
		case entities.OrderProcessing:
			d.ProcessingOrdersCount++
		case entities.OrderDelivered:
			d.DeliveredOrdersCount++
		case entities.OrderCancelled:
			continue
		}

		amount := o.AmountToCharge - entities.DeliveryCharge
		created := o.CreatedAt.In(now.Location())
		if !created.Before(today) && created.Before(tomorrow) {
			d.TodayOrdersAmount += amount
		}
		if !created.Before(month) {
			d.MonthOrdersAmount += amount
		}
		d.TotalOrdersAmount += amount
		if created.Year() == now.Year() {
			d.Sales[created.Month()-1] += amount
		}

		for _, item := range o.Items {
			r, ok := revenue[item.Product.ID]
			if !ok {
				r = &productRevenue{name: item.Product.Name}
				revenue[item.Product.ID] = r
			}
			r.amount += item.Product.UnitPrice() * float64(item.Quantity)
		}
	}

	d.TopRevenueProducts = topRevenue(revenue, topRevenueLimit)
	s.logger.Debug("dashboard computed", zap.Int("orders", len(orders)))
	return d, nil
}

func topRevenue(revenue map[string]*productRevenue, limit int) TopRevenueProducts {
	ranked := make([]*productRevenue, 0, len(revenue))
	for _, r := range revenue {
		ranked = append(ranked, r)
	}
	sort.Slice(ranked, func(i, j int) bool {
		if ranked[i].amount != ranked[j].amount {
			return ranked[i].amount > ranked[j].amount
		}
		return ranked[i].name < ranked[j].name
	})
	if len(ranked) > limit {
		ranked = ranked[:limit]
	}

	out := TopRevenueProducts{Names: []string{}, Amounts: []float64{}}
	for _, r := range ranked {
		out.Names = append(out.Names, r.name)
		out.Amounts = append(out.Amounts, r.amount)
	}
	return out
}
