package core

import (
	"context"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5/pgxpool"
)

// PartnerService keeps the supplier and customer master records that
// purchase and sales documents reference.
type PartnerService interface {
	CreateSupplier(ctx context.Context, sup Supplier) (*Supplier, error)
	ListSuppliers(ctx context.Context) ([]Supplier, error)
	CreateCustomer(ctx context.Context, cust Customer) (*Customer, error)
	ListCustomers(ctx context.Context) ([]Customer, error)
}

type partnerService struct {
	pool *pgxpool.Pool
}

func NewPartnerService(pool *pgxpool.Pool) PartnerService {
	return &partnerService{pool: pool}
}

func (s *partnerService) CreateSupplier(ctx context.Context, sup Supplier) (*Supplier, error) {
	sup.Name = strings.TrimSpace(sup.Name)
	if sup.Name == "" {
		return nil, E(KindValidation, "supplier name is required")
	}
	err := s.pool.QueryRow(ctx, `
		INSERT INTO suppliers (name, address, phone, contact_person, terms, taxable)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id, created_at
	`, sup.Name, sup.Address, sup.Phone, sup.ContactPerson, sup.Terms, sup.Taxable).Scan(&sup.ID, &sup.CreatedAt)
	if err != nil {
		if isUniqueViolation(err) {
			return nil, E(KindConflict, "supplier %q already exists", sup.Name)
		}
		return nil, fmt.Errorf("insert supplier %q: %w", sup.Name, err)
	}
	return &sup, nil
}

func (s *partnerService) ListSuppliers(ctx context.Context) ([]Supplier, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT id, name, address, phone, contact_person, terms, taxable, created_at
		FROM suppliers ORDER BY name
	`)
	if err != nil {
		return nil, fmt.Errorf("list suppliers: %w", err)
	}
	defer rows.Close()

	var out []Supplier
	for rows.Next() {
		var sup Supplier
		if err := rows.Scan(&sup.ID, &sup.Name, &sup.Address, &sup.Phone,
			&sup.ContactPerson, &sup.Terms, &sup.Taxable, &sup.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan supplier: %w", err)
		}
		out = append(out, sup)
	}
	return out, rows.Err()
}

func (s *partnerService) CreateCustomer(ctx context.Context, cust Customer) (*Customer, error) {
	cust.Name = strings.TrimSpace(cust.Name)
	if cust.Name == "" {
		return nil, E(KindValidation, "customer name is required")
	}
	err := s.pool.QueryRow(ctx,
		"INSERT INTO customers (name) VALUES ($1) RETURNING id, created_at",
		cust.Name,
	).Scan(&cust.ID, &cust.CreatedAt)
	if err != nil {
		if isUniqueViolation(err) {
			return nil, E(KindConflict, "customer %q already exists", cust.Name)
		}
		return nil, fmt.Errorf("insert customer %q: %w", cust.Name, err)
	}
	return &cust, nil
}

func (s *partnerService) ListCustomers(ctx context.Context) ([]Customer, error) {
	rows, err := s.pool.Query(ctx, "SELECT id, name, created_at FROM customers ORDER BY name")
	if err != nil {
		return nil, fmt.Errorf("list customers: %w", err)
	}
	defer rows.Close()

	var out []Customer
	for rows.Next() {
		var c Customer
		if err := rows.Scan(&c.ID, &c.Name, &c.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan customer: %w", err)
		}
		out = append(out, c)
	}
	return out, rows.Err()
}
