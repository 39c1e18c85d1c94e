package services

import (
	"context"

	"golang.org/x/sync/errgroup"

	"storefront-backend/application/dto"
	"storefront-backend/application/listcache"
	"storefront-backend/application/ports"
	"storefront-backend/domain/core/entities"
	"storefront-backend/pkg/errors"
)

// Collections holds the cached lists served by the read layer
type Collections struct {
	Brands     *listcache.Collection[dto.Brand]
	Categories *listcache.Collection[dto.Category]
	Products   *listcache.Collection[dto.Product]
	Users      *listcache.Collection[dto.User]
	Coupons    *listcache.Collection[dto.Coupon]
	Orders     *listcache.Collection[dto.Order]
	Reviews    *listcache.Collection[dto.Review]
	Chats      *listcache.Collection[dto.Chat]
}

// NewCollections binds every cached list to its store loader
func NewCollections(b listcache.Backend, stores ports.Stores) *Collections {
	p := &projector{stores: stores}
	return &Collections{
		Brands: listcache.New(b, listcache.Options[dto.Brand]{
			List:   entities.CollectionBrands,
			Entity: "brand",
			Field:  func(v dto.Brand) string { return v.Name },
			Load:   loadAll(stores.Brands, dto.NewBrand),
			Fetch:  fetchOne(stores.Brands, dto.NewBrand),
		}),
		Categories: listcache.New(b, listcache.Options[dto.Category]{
			List:   entities.CollectionCategories,
			Entity: "category",
			Field:  func(v dto.Category) string { return v.Name },
			Load:   loadAll(stores.Categories, dto.NewCategory),
			Fetch:  fetchOne(stores.Categories, dto.NewCategory),
		}),
		Products: listcache.New(b, listcache.Options[dto.Product]{
			List:   entities.CollectionProducts,
			Entity: "product",
			Field:  func(v dto.Product) string { return v.Name },
			Load:   p.products,
			Fetch:  p.productByID,
		}),
		Users: listcache.New(b, listcache.Options[dto.User]{
			List:   entities.CollectionUsers,
			Entity: "user",
			Field:  func(v dto.User) string { return v.Name },
			Load:   loadAll(stores.Users, dto.NewUser),
			Fetch:  fetchOne(stores.Users, dto.NewUser),
		}),
		Coupons: listcache.New(b, listcache.Options[dto.Coupon]{
			List:   entities.CollectionCoupons,
			Entity: "coupon",
			Field:  func(v dto.Coupon) string { return v.Name },
			Load:   loadAll(stores.Coupons, dto.NewCoupon),
			Fetch:  fetchOne(stores.Coupons, dto.NewCoupon),
		}),
		Orders: listcache.New(b, listcache.Options[dto.Order]{
			List:   entities.CollectionOrders,
			Entity: "order",
			Field:  func(v dto.Order) string { return v.User.Name },
			Load:   p.orders,
			Fetch:  p.orderByID,
		}),
		Reviews: listcache.New(b, listcache.Options[dto.Review]{
			List:   entities.CollectionReviews,
			Entity: "review",
			Field:  func(v dto.Review) string { return v.Product.Name },
			Load:   p.reviews,
			Fetch:  p.reviewByID,
		}),
		Chats: listcache.New(b, listcache.Options[dto.Chat]{
			List:   entities.CollectionChats,
			Entity: "chat",
			Field:  dto.Chat.ParticipantNames,
			Load:   p.chats,
			Fetch:  p.chatByID,
		}),
	}
}

func loadAll[E entities.Document, T dto.Record](store ports.DocumentStore[E], project func(E) T) listcache.Loader[T] {
	return func(ctx context.Context) ([]T, error) {
		docs, err := store.List(ctx)
		if err != nil {
			return nil, err
		}
		out := make([]T, 0, len(docs))
		for _, d := range docs {
			out = append(out, project(d))
		}
		return out, nil
	}
}

func fetchOne[E entities.Document, T dto.Record](store ports.DocumentStore[E], project func(E) T) listcache.Fetcher[T] {
	return func(ctx context.Context, id string) (T, error) {
		doc, err := store.Get(ctx, id)
		if err != nil {
			var zero T
			return zero, err
		}
		return project(doc), nil
	}
}

// projector populates references when projecting documents that embed
// other collections.
type projector struct {
	stores ports.Stores
}

// usersByID reads every user once for bulk projections
func (p *projector) usersByID(ctx context.Context) (map[string]entities.User, error) {
	users, err := p.stores.Users.List(ctx)
	if err != nil {
		return nil, err
	}
	out := make(map[string]entities.User, len(users))
	for _, u := range users {
		out[u.ID] = u
	}
	return out, nil
}

func (p *projector) products(ctx context.Context) ([]dto.Product, error) {
	var (
		products []entities.Product
		reviews  []entities.Review
		users    map[string]entities.User
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() (err error) {
		products, err = p.stores.Products.List(gctx)
		return err
	})
	g.Go(func() (err error) {
		reviews, err = p.stores.Reviews.List(gctx)
		return err
	})
	g.Go(func() (err error) {
		users, err = p.usersByID(gctx)
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	byID := make(map[string]entities.Review, len(reviews))
	for _, r := range reviews {
		byID[r.ID] = r
	}
	out := make([]dto.Product, 0, len(products))
	for _, prod := range products {
		embedded := make([]dto.ProductReview, 0, len(prod.ReviewIDs))
		for _, id := range prod.ReviewIDs {
			if r, ok := byID[id]; ok {
				embedded = append(embedded, dto.NewProductReview(r, users[r.AuthorID]))
			}
		}
		out = append(out, dto.NewProduct(prod, embedded))
	}
	return out, nil
}

func (p *projector) productByID(ctx context.Context, id string) (dto.Product, error) {
	prod, err := p.stores.Products.Get(ctx, id)
	if err != nil {
		return dto.Product{}, err
	}
	return p.product(ctx, prod)
}

// product populates the reviews of one product concurrently. References to
// deleted reviews or authors are skipped.
func (p *projector) product(ctx context.Context, prod entities.Product) (dto.Product, error) {
	embedded := make([]*dto.ProductReview, len(prod.ReviewIDs))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(8)
	for i, id := range prod.ReviewIDs {
		g.Go(func() error {
			r, err := p.stores.Reviews.Get(gctx, id)
			if errors.IsNotFound(err) {
				return nil
			}
			if err != nil {
				return err
			}
			author, err := p.stores.Users.Get(gctx, r.AuthorID)
			if err != nil && !errors.IsNotFound(err) {
				return err
			}
			pr := dto.NewProductReview(r, author)
			embedded[i] = &pr
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return dto.Product{}, err
	}

	reviews := make([]dto.ProductReview, 0, len(embedded))
	for _, r := range embedded {
		if r != nil {
			reviews = append(reviews, *r)
		}
	}
	return dto.NewProduct(prod, reviews), nil
}

func (p *projector) orders(ctx context.Context) ([]dto.Order, error) {
	orders, err := p.stores.Orders.List(ctx)
	if err != nil {
		return nil, err
	}
	users, err := p.usersByID(ctx)
	if err != nil {
		return nil, err
	}
	out := make([]dto.Order, 0, len(orders))
	for _, o := range orders {
		out = append(out, dto.NewOrder(o, users[o.UserID]))
	}
	return out, nil
}

func (p *projector) orderByID(ctx context.Context, id string) (dto.Order, error) {
	o, err := p.stores.Orders.Get(ctx, id)
	if err != nil {
		return dto.Order{}, err
	}
	return p.order(ctx, o)
}

func (p *projector) order(ctx context.Context, o entities.Order) (dto.Order, error) {
	customer, err := p.stores.Users.Get(ctx, o.UserID)
	if err != nil && !errors.IsNotFound(err) {
		return dto.Order{}, err
	}
	return dto.NewOrder(o, customer), nil
}

func (p *projector) reviews(ctx context.Context) ([]dto.Review, error) {
	var (
		reviews  []entities.Review
		products []entities.Product
		users    map[string]entities.User
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() (err error) {
		reviews, err = p.stores.Reviews.List(gctx)
		return err
	})
	g.Go(func() (err error) {
		products, err = p.stores.Products.List(gctx)
		return err
	})
	g.Go(func() (err error) {
		users, err = p.usersByID(gctx)
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	byID := make(map[string]entities.Product, len(products))
	for _, prod := range products {
		byID[prod.ID] = prod
	}
	out := make([]dto.Review, 0, len(reviews))
	for _, r := range reviews {
		out = append(out, dto.NewReview(r, users[r.AuthorID], byID[r.ProductID]))
	}
	return out, nil
}

func (p *projector) reviewByID(ctx context.Context, id string) (dto.Review, error) {
	r, err := p.stores.Reviews.Get(ctx, id)
	if err != nil {
		return dto.Review{}, err
	}
	return p.review(ctx, r)
}

func (p *projector) review(ctx context.Context, r entities.Review) (dto.Review, error) {
	var (
		author  entities.User
		product entities.Product
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() (err error) {
		author, err = p.stores.Users.Get(gctx, r.AuthorID)
		if errors.IsNotFound(err) {
			return nil
		}
		return err
	})
	g.Go(func() (err error) {
		product, err = p.stores.Products.Get(gctx, r.ProductID)
		if errors.IsNotFound(err) {
			return nil
		}
		return err
	})
	if err := g.Wait(); err != nil {
		return dto.Review{}, err
	}
	return dto.NewReview(r, author, product), nil
}

func (p *projector) chats(ctx context.Context) ([]dto.Chat, error) {
	var (
		chats []entities.Chat
		users map[string]entities.User
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() (err error) {
		chats, err = p.stores.Chats.List(gctx)
		return err
	})
	g.Go(func() (err error) {
		users, err = p.usersByID(gctx)
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	out := make([]dto.Chat, 0, len(chats))
	for _, c := range chats {
		out = append(out, dto.NewChat(c, users))
	}
	return out, nil
}

func (p *projector) chatByID(ctx context.Context, id string) (dto.Chat, error) {
	c, err := p.stores.Chats.Get(ctx, id)
	if err != nil {
		return dto.Chat{}, err
	}
	return p.chat(ctx, c)
}

// chat populates the participants of one chat
func (p *projector) chat(ctx context.Context, c entities.Chat) (dto.Chat, error) {
	users := make(map[string]entities.User, len(c.ParticipantIDs))
	for _, id := range c.ParticipantIDs {
		u, err := p.stores.Users.Get(ctx, id)
		if errors.IsNotFound(err) {
			continue
		}
		if err != nil {
			return dto.Chat{}, err
		}
		users[id] = u
	}
	return dto.NewChat(c, users), nil
}
