package models

// CustomerPayload - контактные данные покупателя
type CustomerPayload struct {
	Name  string `json:"name" binding:"required"`
	Email string `json:"email" binding:"required"`
	Phone string `json:"phone" binding:"required"`
}

// SeatPayload - место в зале
type SeatPayload struct {
	Row int `json:"row" binding:"required,min=1"`
	Col int `json:"col" binding:"required,min=1"`
}

// OrderItemPayload - одно место в заказе
type OrderItemPayload struct {
	SessionID int64       `json:"sessionId" binding:"required,min=1"`
	Seat      SeatPayload `json:"seat" binding:"required"`
	Price     int64       `json:"price" binding:"min=0,max=2147483647"`
}

// CreateOrderRequest - модель для создания заказа
type CreateOrderRequest struct {
	Customer  *CustomerPayload   `json:"customer" binding:"required"`
	Items     []OrderItemPayload `json:"items" binding:"required,min=1,dive"`
	Payment   string             `json:"payment"`
	PromoCode string             `json:"promoCode"`
}

// ToPlaceOrderRequest converts the wire shape into the engine's input.
func (r *CreateOrderRequest) ToPlaceOrderRequest() PlaceOrderRequest {
	out := PlaceOrderRequest{
		Payment:   r.Payment,
		PromoCode: r.PromoCode,
		Items:     make([]OrderItem, 0, len(r.Items)),
	}
	if r.Customer != nil {
		out.Customer = Customer{Name: r.Customer.Name, Email: r.Customer.Email, Phone: r.Customer.Phone}
	}
	for _, it := range r.Items {
		out.Items = append(out.Items, OrderItem{
			SessionID: it.SessionID,
			Row:       it.Seat.Row,
			Col:       it.Seat.Col,
			Price:     it.Price,
		})
	}
	return out
}

// CreateOrderResponse - модель ответа при создании заказа
type CreateOrderResponse struct {
	OK      bool   `json:"ok"`
	OrderID string `json:"orderId"`
	Total   int64  `json:"total"`
}

// ApplyPromoRequest - проверка промокода
type ApplyPromoRequest struct {
	Code string `json:"code" binding:"required"`
}

// ApplyPromoResponse - результат проверки промокода, promo = null если код не действует
type ApplyPromoResponse struct {
	OK    bool   `json:"ok"`
	Promo *Promo `json:"promo"`
}

// OccupiedSeatsResponse - занятые места сеанса
type OccupiedSeatsResponse struct {
	SessionID int64  `json:"sessionId"`
	Seats     []Seat `json:"seats"`
}

// ErrorResponse - единый формат ошибки
type ErrorResponse struct {
	OK    bool   `json:"ok"`
	Error string `json:"error"`
}
