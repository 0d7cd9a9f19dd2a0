// Package core define los tipos de dominio de la tienda y las interfaces de
// acceso a datos. Las implementaciones viven en store/pg.
package core

import (
	"context"
	"errors"
	"time"
)

// ErrNotFound indica que el recurso no existe.
var ErrNotFound = errors.New("store: not found")

// =================================================================================
// TIPOS
// =================================================================================

// Order es un pedido de la tienda.
type Order struct {
	ID         int64     `json:"id"`
	Reference  string    `json:"reference"`
	CustomerID int64     `json:"customer_id"`
	Status     string    `json:"status"`
	TotalPaid  float64   `json:"total_paid"`
	Currency   string    `json:"currency"`
	CreatedAt  time.Time `json:"created_at"`
	UpdatedAt  time.Time `json:"updated_at"`
}

// OrderFilter filtra listados de pedidos. Los campos zero se ignoran.
type OrderFilter struct {
	CustomerID int64
	Status     string
	DateFrom   time.Time
	DateTo     time.Time
}

// Product es un producto del catálogo.
type Product struct {
	ID        int64     `json:"id"`
	Name      string    `json:"name"`
	Reference string    `json:"reference"`
	Price     float64   `json:"price"`
	Quantity  int       `json:"quantity"`
	Active    bool      `json:"active"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Customer es un cliente registrado.
type Customer struct {
	ID        int64     `json:"id"`
	Email     string    `json:"email"`
	FirstName string    `json:"first_name"`
	LastName  string    `json:"last_name"`
	CreatedAt time.Time `json:"created_at"`
}

// Basket es un carrito, convertido o no en pedido.
type Basket struct {
	ID         int64     `json:"id"`
	CustomerID int64     `json:"customer_id"`
	ItemCount  int       `json:"item_count"`
	HasOrder   bool      `json:"has_order"`
	CreatedAt  time.Time `json:"created_at"`
	UpdatedAt  time.Time `json:"updated_at"`
}

// BasketFilter filtra listados de carritos.
type BasketFilter struct {
	CustomerID int64
	// HasOrder: nil = no filtrar
	HasOrder *bool
	// AbandonedSinceDays: carritos sin pedido sin tocar hace N días
	AbandonedSinceDays int
	DateFrom           time.Time
	DateTo             time.Time
}

// DashboardSummary son las métricas agregadas del dashboard.
type DashboardSummary struct {
	Orders           int64   `json:"orders"`
	Revenue          float64 `json:"revenue"`
	Customers        int64   `json:"customers"`
	AbandonedBaskets int64   `json:"abandoned_baskets"`
}

// ReportFilter acota los reportes por fechas y tamaño.
type ReportFilter struct {
	Limit    int
	DateFrom time.Time
	DateTo   time.Time
}

// BestSeller es una fila del reporte de más vendidos.
type BestSeller struct {
	ProductID    int64   `json:"product_id"`
	Name         string  `json:"name"`
	QuantitySold int64   `json:"quantity_sold"`
	Revenue      float64 `json:"revenue"`
}

// BestCustomer es una fila del reporte de mejores clientes.
type BestCustomer struct {
	CustomerID  int64   `json:"customer_id"`
	Email       string  `json:"email"`
	OrdersCount int64   `json:"orders_count"`
	TotalSpent  float64 `json:"total_spent"`
}

// Device es un dispositivo registrado para push FCM.
type Device struct {
	Token     string    `json:"token"`
	DeviceID  string    `json:"device_id"`
	Platform  string    `json:"platform"`
	Topics    []string  `json:"topics"`
	Primary   bool      `json:"primary"`
	UpdatedAt time.Time `json:"updated_at"`
}

// =================================================================================
// INTERFACES DE ACCESO
// =================================================================================

// OrderRepository lee y actualiza pedidos.
type OrderRepository interface {
	ListOrders(ctx context.Context, f OrderFilter, limit, offset int) ([]Order, error)
	GetOrder(ctx context.Context, id int64) (Order, error)
	UpdateOrderStatus(ctx context.Context, id int64, status string) (Order, error)
}

// ProductRepository lee y actualiza productos.
type ProductRepository interface {
	ListProducts(ctx context.Context, limit, offset int) ([]Product, error)
	GetProduct(ctx context.Context, id int64) (Product, error)
	UpdateProductPrice(ctx context.Context, id int64, price float64) (Product, error)
	UpdateProductStock(ctx context.Context, id int64, quantity int) (Product, error)
}

// CustomerRepository lee clientes.
type CustomerRepository interface {
	ListCustomers(ctx context.Context, limit, offset int) ([]Customer, error)
	GetCustomer(ctx context.Context, id int64) (Customer, error)
}

// BasketRepository lee carritos.
type BasketRepository interface {
	ListBaskets(ctx context.Context, f BasketFilter, limit, offset int) ([]Basket, error)
	GetBasket(ctx context.Context, id int64) (Basket, error)
}

// ReportsRepository calcula los reportes agregados.
type ReportsRepository interface {
	BestSellers(ctx context.Context, f ReportFilter) ([]BestSeller, error)
	BestCustomers(ctx context.Context, f ReportFilter) ([]BestCustomer, error)
}

// DashboardRepository calcula el resumen del dashboard.
type DashboardRepository interface {
	Summary(ctx context.Context, from, to time.Time) (DashboardSummary, error)
}

// DeviceRepository mantiene el registro de dispositivos FCM.
type DeviceRepository interface {
	UpsertDevice(ctx context.Context, d Device) error
	DeleteDevice(ctx context.Context, token string) error
	ListDevices(ctx context.Context, primary bool) ([]Device, error)
}

// Store agrupa todos los repositorios de dominio.
type Store interface {
	OrderRepository
	ProductRepository
	CustomerRepository
	BasketRepository
	ReportsRepository
	DashboardRepository
	DeviceRepository
}
