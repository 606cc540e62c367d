package db

import (
	"database/sql"
	"time"
)

type Ingredient struct {
	ID            string
	Name          string
	Vendor        sql.NullString
	ProteinPer100 float64
	CarbsPer100   float64
	FatPer100     float64
}

type Recipe struct {
	ID              string
	Name            string
	IngredientLines string
	UpdatedAt       time.Time
}
