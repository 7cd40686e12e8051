package models

import (
	"log"

	"github.com/evegendelacruz/Gelato-Wholesale-Collective-Ordering-System-sub001/config"
)

func MigrateTable() {
	db := config.GetDB()

	err := db.AutoMigrate(
		&Customer{},
		&Product{},
		&Order{}, &OrderItem{},
		&YearlyReport{},
	)
	if err != nil {
		log.Fatal(err)
	}
}
