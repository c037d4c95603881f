//go:build integration

package dao

import (
	"context"
	"errors"
	"fmt"
	"log"
	"os"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/ory/dockertest/v3"
	"github.com/ory/dockertest/v3/docker"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

var pgDB *gorm.DB

func TestMain(m *testing.M) {
	pool, err := dockertest.NewPool("")
	if err != nil {
		log.Fatalf("dockertest.NewPool -> %v", err)
	}

	resource, err := pool.RunWithOptions(&dockertest.RunOptions{
		Repository: "postgres",
		Tag:        "16-alpine",
		Env: []string{
			"POSTGRES_USER=meddist",
			"POSTGRES_PASSWORD=meddist",
			"POSTGRES_DB=meddist",
		},
	}, func(hc *docker.HostConfig) {
		hc.AutoRemove = true
		hc.RestartPolicy = docker.RestartPolicy{Name: "no"}
	})
	if err != nil {
		log.Fatalf("pool.RunWithOptions -> %v", err)
	}
	_ = resource.Expire(120)

	dsn := fmt.Sprintf("host=localhost port=%s user=meddist password=meddist dbname=meddist sslmode=disable",
		resource.GetPort("5432/tcp"))

	pool.MaxWait = 60 * time.Second
	err = pool.Retry(func() error {
		db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{
			TranslateError: true,
			Logger:         logger.Default.LogMode(logger.Silent),
		})
		if err != nil {
			return err
		}
		sqlDB, err := db.DB()
		if err != nil {
			return err
		}
		if err = sqlDB.Ping(); err != nil {
			return err
		}
		pgDB = db

		return nil
	})
	if err != nil {
		_ = pool.Purge(resource)
		log.Fatalf("pool.Retry -> %v", err)
	}

	if err = InitTables(pgDB); err != nil {
		_ = pool.Purge(resource)
		log.Fatalf("InitTables -> %v", err)
	}

	code := m.Run()

	_ = pool.Purge(resource)
	os.Exit(code)
}

func seedPostgresInventory(t *testing.T, available int) ProductInventory {
	t.Helper()
	ctx := context.Background()

	product, err := NewProductDAO(pgDB).Insert(ctx, Product{
		Name: "Amoxicilina " + uuid.NewString()[:8], Brand: "EMS", Price: decimal.RequireFromString("32.00"),
	}, nil)
	require.NoError(t, err)
	location, err := NewLocationDAO(pgDB).Insert(ctx, Location{Name: "CD Recife", Capacity: 500})
	require.NoError(t, err)
	channel, err := NewChannelDAO(pgDB).Insert(ctx, Channel{Name: "Farmácias"})
	require.NoError(t, err)

	inv, err := NewInventoryDAO(pgDB).Insert(ctx, ProductInventory{
		ProductID: product.ID, LocationID: location.ID, ChannelID: channel.ID,
		AvailableStock: available,
	})
	require.NoError(t, err)

	return inv
}

func TestPostgres_ConcurrentMutationsKeepEveryUpdate(t *testing.T) {
	ctx := context.Background()
	inv := seedPostgresInventory(t, 0)
	inventory := NewInventoryDAO(pgDB)

	const writers = 8
	var (
		wg        sync.WaitGroup
		conflicts int
		mu        sync.Mutex
	)
	for i := 0; i < writers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for {
				_, err := inventory.Mutate(ctx, inv.ProductID, inv.LocationID, inv.ChannelID,
					func(row *ProductInventory) (InventoryLog, error) {
						row.AvailableStock++
						return InventoryLog{ProductID: row.ProductID, ChangeType: "STOCK_IN", Quantity: 1}, nil
					})
				if errors.Is(err, ErrInventoryVersionConflict) {
					mu.Lock()
					conflicts++
					mu.Unlock()
					continue
				}
				assert.NoError(t, err)
				return
			}
		}()
	}
	wg.Wait()

	stored, err := inventory.FindByKey(ctx, inv.ProductID, inv.LocationID, inv.ChannelID)
	require.NoError(t, err)
	assert.Equal(t, writers, stored.AvailableStock)
	assert.Equal(t, writers+1, stored.Version)

	_, total, err := inventory.FindLogs(ctx, InventoryLogQuery{ProductID: &inv.ProductID})
	require.NoError(t, err)
	assert.EqualValues(t, writers, total)
	t.Logf("version conflicts retried: %d", conflicts)
}

func TestPostgres_ConstraintsTranslate(t *testing.T) {
	ctx := context.Background()
	inv := seedPostgresInventory(t, 1)
	inventory := NewInventoryDAO(pgDB)

	_, err := inventory.Insert(ctx, ProductInventory{
		ProductID: inv.ProductID, LocationID: inv.LocationID, ChannelID: inv.ChannelID,
	})
	assert.ErrorIs(t, err, ErrInventoryExists)

	_, err = inventory.Mutate(ctx, inv.ProductID, inv.LocationID, inv.ChannelID,
		func(row *ProductInventory) (InventoryLog, error) {
			row.AvailableStock = -1
			return InventoryLog{ProductID: row.ProductID, ChangeType: "STOCK_OUT", Quantity: 2}, nil
		})
	assert.ErrorIs(t, err, ErrNegativeStock)

	assert.ErrorIs(t, NewLocationDAO(pgDB).Delete(ctx, inv.LocationID), ErrLocationInUse)
}
