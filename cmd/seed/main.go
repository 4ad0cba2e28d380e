package main

import (
	"fmt"
	"time"

	"github.com/crewpay-next/internal/config"
	"github.com/crewpay-next/internal/constants"
	"github.com/crewpay-next/internal/logger"
	"github.com/crewpay-next/internal/models"
	"github.com/crewpay-next/internal/service"

	"github.com/shopspring/decimal"
	"gorm.io/datatypes"
	"gorm.io/gorm/clause"
)

func main() {
	// 连接数据库
	cfg := config.Load()
	logger.Init(cfg.Server.Mode, cfg.Log.ToLoggerOptions())
	stdLog := logger.StdLogger()
	if err := models.InitDB(cfg.Database.Driver, cfg.Database.DSN, cfg.Server.Mode, models.DBPoolConfig{
		MaxOpenConns:           cfg.Database.Pool.MaxOpenConns,
		MaxIdleConns:           cfg.Database.Pool.MaxIdleConns,
		ConnMaxLifetimeSeconds: cfg.Database.Pool.ConnMaxLifetimeSeconds,
		ConnMaxIdleTimeSeconds: cfg.Database.Pool.ConnMaxIdleTimeSeconds,
	}); err != nil {
		stdLog.Fatalf("Failed to connect database: %v", err)
	}

	// 自动迁移
	if err := models.AutoMigrate(); err != nil {
		stdLog.Fatalf("Failed to migrate database: %v", err)
	}

	upsert := models.DB.Clauses(clause.OnConflict{DoNothing: true})

	// 服务类型佣金比例
	rates := []models.CommissionRate{
		{ServiceType: "cleaning", RatePercent: money("12"), Active: true, UpdatedBy: "seed"},
		{ServiceType: "moving", RatePercent: money("15"), Active: true, UpdatedBy: "seed"},
		{ServiceType: "handyman", RatePercent: money("18.5"), Active: true, UpdatedBy: "seed"},
		{ServiceType: "gardening", RatePercent: money("10"), Active: false, UpdatedBy: "seed"},
	}
	if err := upsert.Create(&rates).Error; err != nil {
		stdLog.Fatalf("Failed to seed commission rates: %v", err)
	}

	// 员工档案（个人比例为 0 时走服务类型比例）
	crew := []models.CrewProfile{
		{CrewUserID: "crew-alice", DisplayName: "Alice", IndividualCommissionRatePercent: money("0")},
		{CrewUserID: "crew-bob", DisplayName: "Bob", IndividualCommissionRatePercent: money("20")},
		{CrewUserID: "crew-chen", DisplayName: "陈师傅", IndividualCommissionRatePercent: money("0")},
	}
	if err := upsert.Create(&crew).Error; err != nil {
		stdLog.Fatalf("Failed to seed crew profiles: %v", err)
	}

	// 最近一周的已完成订单
	now := time.Now().UTC()
	bookings := []models.CompletedBooking{
		booking(1, "cleaning", "residential", "240.00", now.Add(-72*time.Hour), `["crew-alice"]`),
		booking(2, "moving", "commercial", "900.00", now.Add(-48*time.Hour), `["crew-alice","crew-bob"]`),
		booking(3, "handyman", "", "180.00", now.Add(-24*time.Hour), `["crew-chen"]`),
		booking(4, "cleaning", "deep", "320.00", now.Add(-6*time.Hour), `[]`),
	}
	if err := upsert.Create(&bookings).Error; err != nil {
		stdLog.Fatalf("Failed to seed bookings: %v", err)
	}

	// 手工调整条目
	entries := []models.CommissionEntry{
		{
			CrewUserID: "crew-bob",
			EntryDate:  now.Add(-24 * time.Hour),
			Amount:     money("25.00"),
			Notes:      "weekend bonus",
			RecordedBy: "seed",
			Status:     constants.SettlementStatusApproved,
			Source:     constants.CommissionEntrySourceManual,
		},
		{
			CrewUserID: "crew-chen",
			EntryDate:  now.Add(-12 * time.Hour),
			Amount:     money("-10.00"),
			Notes:      "damaged equipment deduction",
			RecordedBy: "seed",
			Status:     constants.SettlementStatusPending,
			Source:     constants.CommissionEntrySourceManual,
		},
	}
	var entryCount int64
	if err := models.DB.Model(&models.CommissionEntry{}).Where("recorded_by = ?", "seed").Count(&entryCount).Error; err != nil {
		stdLog.Fatalf("Failed to count seed entries: %v", err)
	}
	if entryCount == 0 {
		if err := models.DB.Create(&entries).Error; err != nil {
			stdLog.Fatalf("Failed to seed commission entries: %v", err)
		}
	}

	// 本地调试用操作员令牌
	tokens := service.NewOperatorTokenService(cfg.JWT)
	for _, role := range []string{constants.OperatorRoleViewer, constants.OperatorRoleManager, constants.OperatorRoleAdmin} {
		token, expiresAt, err := tokens.Issue("seed-"+role, role)
		if err != nil {
			stdLog.Printf("Skip %s token: %v", role, err)
			continue
		}
		fmt.Printf("%s (expires %s):\n  Bearer %s\n", role, expiresAt.Format(time.RFC3339), token)
	}

	fmt.Println("Seed data created successfully!")
}

func money(raw string) models.Money {
	return models.NewMoneyFromDecimal(decimal.RequireFromString(raw))
}

func booking(id uint, serviceType, category, revenue string, completedAt time.Time, crewIDs string) models.CompletedBooking {
	return models.CompletedBooking{
		ID:              id,
		ServiceType:     serviceType,
		Category:        category,
		TotalRevenue:    money(revenue),
		Status:          constants.BookingStatusCompleted,
		CompletedAt:     &completedAt,
		AssignedCrewIDs: datatypes.JSON(crewIDs),
	}
}
