package main

import (
	"testing"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/stretchr/testify/assert"
)

// OrderRepository precisa satisfazer a interface Repository
var _ Repository = (*OrderRepository)(nil)

func TestNewOrderRepository(t *testing.T) {
	var db *pgxpool.Pool

	repo := NewOrderRepository(db)

	assert.NotNil(t, repo)
	assert.IsType(t, &OrderRepository{}, repo)
}
