package db_test

import (
	"context"
	"errors"
	"testing"

	"github.com/wyfcoding/distributorhub/pkg/db"
	"github.com/wyfcoding/distributorhub/pkg/db/dbtest"
)

type note struct {
	ID   uint   `gorm:"primaryKey"`
	Body string `gorm:"uniqueIndex"`
}

func count(t *testing.T, database *db.DB) int64 {
	t.Helper()
	var n int64
	if err := database.Model(&note{}).Count(&n).Error; err != nil {
		t.Fatalf("count: %v", err)
	}
	return n
}

func TestTransactionRollsBackNestedWork(t *testing.T) {
	database := dbtest.Open(t, &note{})
	ctx := context.Background()
	boom := errors.New("boom")

	err := database.Transaction(ctx, func(txCtx context.Context) error {
		if err := database.Conn(txCtx).Create(&note{Body: "outer"}).Error; err != nil {
			return err
		}
		// joins the outer transaction
		if err := database.Transaction(txCtx, func(inner context.Context) error {
			return database.Conn(inner).Create(&note{Body: "inner"}).Error
		}); err != nil {
			return err
		}
		return boom
	})
	if !errors.Is(err, boom) {
		t.Fatalf("expected boom, got %v", err)
	}
	if n := count(t, database); n != 0 {
		t.Fatalf("expected rollback of both rows, got %d", n)
	}

	err = database.Transaction(ctx, func(txCtx context.Context) error {
		return database.Conn(txCtx).Create(&note{Body: "kept"}).Error
	})
	if err != nil || count(t, database) != 1 {
		t.Fatalf("expected committed row, got %v", err)
	}
}

func TestErrorHelpers(t *testing.T) {
	database := dbtest.Open(t, &note{})
	ctx := context.Background()

	err := database.Conn(ctx).Where("id = ?", 42).First(&note{}).Error
	if !db.IsNotFound(err) {
		t.Fatalf("expected not found, got %v", err)
	}

	if err := database.Conn(ctx).Create(&note{Body: "same"}).Error; err != nil {
		t.Fatalf("create: %v", err)
	}
	err = database.Conn(ctx).Create(&note{Body: "same"}).Error
	if !db.IsDuplicate(err) {
		t.Fatalf("expected translated duplicate key error, got %v", err)
	}
}

func TestOpenRejectsUnknownDriver(t *testing.T) {
	if _, err := db.Open(context.Background(), db.Config{Driver: "oracle"}); err == nil {
		t.Fatal("expected unsupported driver error")
	}
}
