package main

import (
	"fmt"
	"log"
	"os"

	"golang.org/x/crypto/bcrypt"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

type User struct {
	ID       uint   `gorm:"primaryKey"`
	Username string `gorm:"size:100;not null"`
	Password string `gorm:"size:255"`
}

func (User) TableName() string {
	return "users"
}

func main() {
	dbPath := "sonora.db"
	if len(os.Args) > 1 {
		dbPath = os.Args[1]
	}
	newPassword := "admin"
	if len(os.Args) > 2 {
		newPassword = os.Args[2]
	}

	db, err := gorm.Open(sqlite.Open(dbPath), &gorm.Config{})
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(newPassword), bcrypt.DefaultCost)
	if err != nil {
		log.Fatalf("Failed to hash password: %v", err)
	}

	result := db.Model(&User{}).Where("username = ?", "admin").Update("password", string(hash))
	if result.Error != nil {
		log.Fatalf("Failed to update admin user: %v", result.Error)
	}
	if result.RowsAffected == 0 {
		log.Fatal("No admin user found, run the server once to seed it")
	}

	fmt.Printf("✅ Admin password reset (%s)\n", dbPath)
}
