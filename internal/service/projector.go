package service

import (
	"context"
	"time"

	"marketplace-service/internal/models"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// ProductSummary is the projected shape of a referenced product.
type ProductSummary struct {
	Name        string `json:"name"`
	Price       string `json:"price"`
	Category    string `json:"category"`
	Description string `json:"description,omitempty"`
}

// StoreSummary is the projected shape of a referenced store.
type StoreSummary struct {
	Name    string `json:"name"`
	Address string `json:"address,omitempty"`
	Phone   string `json:"phone,omitempty"`
	Email   string `json:"email,omitempty"`
}

// UserSummary is the projected shape of a referenced user. There is no
// password field here: redaction is structural, not conditional.
type UserSummary struct {
	Username string `json:"username"`
	Name     string `json:"name,omitempty"`
	Email    string `json:"email,omitempty"`
	Phone    string `json:"phone,omitempty"`
	Address  string `json:"address,omitempty"`
}

// LineItemView is an order line item with its product reference expanded.
// Product is nil when the referenced product no longer exists.
type LineItemView struct {
	ProductID string          `json:"product_id"`
	Quantity  int             `json:"quantity"`
	Product   *ProductSummary `json:"product,omitempty"`
}

// OrderView is the response-ready shape of an order.
type OrderView struct {
	OrderID   string         `json:"order_id"`
	Items     []LineItemView `json:"items"`
	StoreID   string         `json:"store_id"`
	Store     *StoreSummary  `json:"store,omitempty"`
	UserID    string         `json:"user_id"`
	User      *UserSummary   `json:"user,omitempty"`
	Status    string         `json:"status"`
	CreatedAt time.Time      `json:"created_at"`
}

// UserView is the response shape for user CRUD operations, password omitted.
type UserView struct {
	ID        string    `json:"id"`
	Username  string    `json:"username"`
	Name      string    `json:"name,omitempty"`
	Address   string    `json:"address,omitempty"`
	Email     string    `json:"email,omitempty"`
	Phone     string    `json:"phone,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

// Projector expands an order's references into response-ready summaries.
type Projector struct {
	store Storage
}

// NewProjector creates a new response projector
func NewProjector(storage Storage) *Projector {
	return &Projector{store: storage}
}

// ProjectOrder expands a single order, fetching its references.
func (p *Projector) ProjectOrder(ctx context.Context, order *models.Order) (*OrderView, error) {
	views, err := p.ProjectOrders(ctx, []models.Order{*order})
	if err != nil {
		return nil, err
	}
	return &views[0], nil
}

// ProjectOrders expands a list of orders with one batch fetch per referenced
// collection. References that no longer resolve project as nil summaries with
// the raw identifier retained.
func (p *Projector) ProjectOrders(ctx context.Context, orders []models.Order) ([]OrderView, error) {
	productIDs := map[primitive.ObjectID]bool{}
	storeIDs := map[primitive.ObjectID]bool{}
	userIDs := map[primitive.ObjectID]bool{}
	for _, o := range orders {
		for _, item := range o.Items {
			productIDs[item.ProductID] = true
		}
		storeIDs[o.StoreID] = true
		userIDs[o.UserID] = true
	}

	products, err := p.store.GetProductsByIDs(ctx, idList(productIDs))
	if err != nil {
		return nil, err
	}
	stores, err := p.store.GetStoresByIDs(ctx, idList(storeIDs))
	if err != nil {
		return nil, err
	}
	users, err := p.store.GetUsersByIDs(ctx, idList(userIDs))
	if err != nil {
		return nil, err
	}

	productMap := make(map[primitive.ObjectID]*models.Product, len(products))
	for i := range products {
		productMap[products[i].ID] = &products[i]
	}
	storeMap := make(map[primitive.ObjectID]*models.Store, len(stores))
	for i := range stores {
		storeMap[stores[i].ID] = &stores[i]
	}
	userMap := make(map[primitive.ObjectID]*models.User, len(users))
	for i := range users {
		userMap[users[i].ID] = &users[i]
	}

	views := make([]OrderView, 0, len(orders))
	for i := range orders {
		refs := &ResolvedRefs{
			Products: productMap,
			Store:    storeMap[orders[i].StoreID],
			User:     userMap[orders[i].UserID],
		}
		views = append(views, *ProjectResolved(&orders[i], refs))
	}
	return views, nil
}

// ProjectResolved builds an order view from already-loaded references. Used
// by the creation path, which has just resolved everything.
func ProjectResolved(order *models.Order, refs *ResolvedRefs) *OrderView {
	items := make([]LineItemView, 0, len(order.Items))
	for _, item := range order.Items {
		view := LineItemView{
			ProductID: item.ProductID.Hex(),
			Quantity:  item.Quantity,
		}
		if product, ok := refs.Products[item.ProductID]; ok {
			view.Product = &ProductSummary{
				Name:        product.Name,
				Price:       product.Price,
				Category:    product.Category,
				Description: product.Description,
			}
		}
		items = append(items, view)
	}

	orderView := &OrderView{
		OrderID:   order.OrderID,
		Items:     items,
		StoreID:   order.StoreID.Hex(),
		UserID:    order.UserID.Hex(),
		Status:    order.Status,
		CreatedAt: order.CreatedAt,
	}

	if refs.Store != nil {
		orderView.Store = &StoreSummary{
			Name:    refs.Store.Name,
			Address: refs.Store.Address,
			Phone:   refs.Store.Phone,
			Email:   refs.Store.Email,
		}
	}
	if refs.User != nil {
		orderView.User = &UserSummary{
			Username: refs.User.Username,
			Name:     refs.User.Name,
			Email:    refs.User.Email,
			Phone:    refs.User.Phone,
			Address:  refs.User.Address,
		}
	}
	return orderView
}

// ProjectUser strips the password from a user record.
func ProjectUser(user *models.User) *UserView {
	return &UserView{
		ID:        user.ID.Hex(),
		Username:  user.Username,
		Name:      user.Name,
		Address:   user.Address,
		Email:     user.Email,
		Phone:     user.Phone,
		CreatedAt: user.CreatedAt,
	}
}

func idList(set map[primitive.ObjectID]bool) []primitive.ObjectID {
	ids := make([]primitive.ObjectID, 0, len(set))
	for id := range set {
		ids = append(ids, id)
	}
	return ids
}
