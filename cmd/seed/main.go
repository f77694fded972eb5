package main

import (
	"context"
	"fmt"
	"time"

	"lostfound/internal/app"
	"lostfound/internal/config"
	"lostfound/internal/database"
	"lostfound/internal/domain/auth"
	"lostfound/internal/domain/item"
	"lostfound/internal/domain/request"
	"lostfound/internal/logger"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic(fmt.Errorf("config: %w", err))
	}
	log := logger.NewForEnvironment(cfg.App.Env, logger.Config{Level: cfg.Log.Level, Format: cfg.Log.Format, Output: cfg.Log.Output})
	defer func() { _ = log.Sync() }()

	db, err := database.Connect(cfg.Database.DSN, database.Options{Logger: log})
	if err != nil {
		log.Fatal("db connect failed", zap.Error(err))
	}

	log.Info("running migrations")
	if err := app.Migrate(db); err != nil {
		log.Fatal("migrate failed", zap.Error(err))
	}

	// Cleanup old data (children first)
	log.Info("cleaning old data")
	for _, table := range []string{
		"notifications", "activities", "media",
		request.KindClaim.Table(), request.KindFound.Table(),
		item.KindLost.Table(), item.KindFound.Table(),
		"users",
	} {
		if err := db.Exec("DELETE FROM " + table).Error; err != nil {
			log.Fatal("clean failed", zap.String("table", table), zap.Error(err))
		}
	}

	ctx := context.Background()
	users := auth.NewRepository(db)
	items := item.NewRepository(db)
	requests := request.NewRepository(db)
	now := time.Now().UTC()

	// ================== USERS ==================
	log.Info("creating users")

	mkUser := func(email, name, password string, isAdmin bool) *auth.User {
		hash, err := auth.HashPassword(password)
		if err != nil {
			log.Fatal("hash password", zap.Error(err))
		}
		u := &auth.User{
			ID:           uuid.NewString(),
			Email:        email,
			PasswordHash: hash,
			Name:         name,
			IsAdmin:      isAdmin,
			CreatedAt:    now,
			UpdatedAt:    now,
		}
		if err := users.Create(ctx, u); err != nil {
			log.Fatal("create user failed", zap.String("email", email), zap.Error(err))
		}
		return u
	}

	mkUser(cfg.Auth.AdminEmail, "Lost & Found Office", "admin12345", true)
	log.Info("admin created", zap.String("email", cfg.Auth.AdminEmail), zap.String("password", "admin12345"))

	students := make([]*auth.User, 0, 3)
	for i, name := range []string{"Aigerim Sadykova", "Daniyar Omarov", "Mira Chen"} {
		email := fmt.Sprintf("student%d@campus.edu", i+1)
		students = append(students, mkUser(email, name, "student123", false))
		log.Info("student created", zap.String("email", email), zap.String("password", "student123"))
	}

	// ================== ITEMS ==================
	log.Info("creating items")

	type sample struct {
		kind     item.Kind
		name     string
		landmark string
		status   item.Status
		owner    *auth.User
	}
	samples := []sample{
		{item.KindLost, "Black umbrella", "Engineering building, lobby", item.StatusApproved, students[0]},
		{item.KindLost, "Student ID card", "Cafeteria", item.StatusApproved, students[1]},
		{item.KindFound, "Blue backpack", "Library, 2nd floor", item.StatusApproved, students[2]},
		{item.KindFound, "AirPods case", "Gym locker room", item.StatusPending, students[0]},
		{item.KindFound, "Calculator TI-84", "Room 204", item.StatusRejected, students[1]},
	}

	created := make([]*item.Item, 0, len(samples))
	for i, s := range samples {
		at := now.Add(-time.Duration(len(samples)-i) * time.Hour)
		it := &item.Item{
			ID:        uuid.NewString(),
			Kind:      s.kind,
			Name:      s.name,
			Landmark:  s.landmark,
			Contact:   s.owner.Email,
			Images:    []item.Image{},
			DateEvent: at.Format("2006-01-02"),
			TimeEvent: at.Format("15:04"),
			Reporter:  item.Reporter{UserID: s.owner.ID, Name: s.owner.Name},
			Status:    s.status,
			CreatedAt: at,
			UpdatedAt: at,
		}
		if err := items.Create(ctx, it); err != nil {
			log.Fatal("create item failed", zap.String("name", s.name), zap.Error(err))
		}
		created = append(created, it)
	}
	log.Info("items created", zap.Int("count", len(created)))

	// ================== REQUESTS ==================
	log.Info("creating requests")

	backpack := created[2]
	claim := &request.Request{
		ID:            uuid.NewString(),
		Kind:          request.ForItem(backpack.Kind),
		ItemID:        backpack.ID,
		RequesterID:   students[0].ID,
		RequesterName: students[0].Name,
		Contact:       students[0].Email,
		Description:   "Has a keychain with my initials A.S.",
		Status:        request.StatusPending,
		CreatedAt:     now,
		UpdatedAt:     now,
	}
	if err := requests.Create(ctx, claim); err != nil {
		log.Fatal("create claim failed", zap.Error(err))
	}

	umbrella := created[0]
	found := &request.Request{
		ID:            uuid.NewString(),
		Kind:          request.ForItem(umbrella.Kind),
		ItemID:        umbrella.ID,
		RequesterID:   students[2].ID,
		RequesterName: students[2].Name,
		Contact:       students[2].Email,
		Description:   "Saw it by the vending machines",
		Status:        request.StatusPending,
		CreatedAt:     now,
		UpdatedAt:     now,
	}
	if err := requests.Create(ctx, found); err != nil {
		log.Fatal("create found request failed", zap.Error(err))
	}

	log.Info("seed completed")
}
