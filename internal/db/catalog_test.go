package db_test

import (
	"path/filepath"
	"testing"

	"github.com/melitools/melisync/internal/db"
	"github.com/melitools/melisync/internal/model"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func setupDB(t *testing.T) {
	t.Helper()
	gdb, err := gorm.Open(sqlite.Open(filepath.Join(t.TempDir(), "test.db")), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)
	require.NoError(t, db.Init(gdb))
}

func TestFixedPriceUpsertAndCaseInsensitiveLookup(t *testing.T) {
	setupDB(t)

	require.NoError(t, db.SaveFixedPrice("abc-1", 10, ""))
	require.NoError(t, db.SaveFixedPrice("ABC-1", 12.5, "bumped"))

	price, ok, err := db.GetFixedPrice(" abc-1 ")
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, 12.5, price)

	all, err := db.GetAllFixedPrices()
	require.NoError(t, err)
	require.Len(t, all, 1)
	require.Equal(t, 12.5, all["ABC-1"])

	require.NoError(t, db.DeleteFixedPrice("abc-1"))
	_, ok, err = db.GetFixedPrice("ABC-1")
	require.NoError(t, err)
	require.False(t, ok)
}

func TestCompatibilityProfileRoundTrip(t *testing.T) {
	setupDB(t)

	in := []map[string]any{{"id": 1.0, "name": "Gol G5"}, {"id": 2.0, "name": "Gol G6"}}
	require.NoError(t, db.SaveCompatibilityProfile("gol", in, "vw gol family"))

	out, err := db.LoadCompatibilityProfile("gol")
	require.NoError(t, err)
	require.Equal(t, in, out)

	names, err := db.ListCompatibilityProfileNames()
	require.NoError(t, err)
	require.Equal(t, []string{"gol"}, names)

	require.NoError(t, db.DeleteCompatibilityProfile("gol"))
	_, err = db.LoadCompatibilityProfile("gol")
	require.Error(t, err)
}

func TestCompetitorAdUpsert(t *testing.T) {
	setupDB(t)

	require.NoError(t, db.UpsertCompetitorAd(&model.CompetitorAd{
		MLBID: "MLB9", LinkedGroupID: 1, LastKnownPrice: 50,
	}))
	require.NoError(t, db.UpsertCompetitorAd(&model.CompetitorAd{
		MLBID: "MLB9", LinkedGroupID: 1, LastKnownPrice: 45, LastKnownStock: 3,
	}))

	ads, err := db.GetCompetitorsForGroup(1)
	require.NoError(t, err)
	require.Len(t, ads, 1)
	require.Equal(t, 45.0, ads[0].LastKnownPrice)
	require.Equal(t, 3, ads[0].LastKnownStock)
}

func TestPricingRuleCRUD(t *testing.T) {
	setupDB(t)

	rule := &model.PricingRule{
		RuleName:           "default markup",
		AccountNickname:    "acme",
		ListingType:        "gold_special",
		PriceThreshold:     100,
		ComparisonOperator: "<",
		PercentageMarkup:   40,
	}
	require.NoError(t, db.SavePricingRule(rule))
	require.NotZero(t, rule.RuleID)

	rules, err := db.ListPricingRules()
	require.NoError(t, err)
	require.Len(t, rules, 1)
	require.Equal(t, 40.0, rules[0].PercentageMarkup)

	require.NoError(t, db.DeletePricingRule(rule.RuleID))
	rules, err = db.ListPricingRules()
	require.NoError(t, err)
	require.Empty(t, rules)
}

func TestLatestStatusByItemUsesNewestRow(t *testing.T) {
	setupDB(t)

	older := &model.QueueTask{TaskType: model.TaskPriceCheck, ItemID: "MLB1", Status: model.StatusError, LastErrorMessage: "boom"}
	require.NoError(t, db.CreateTask(older))
	newer := &model.QueueTask{TaskType: model.TaskPriceCheck, ItemID: "MLB1", Status: model.StatusDone, LastErrorMessage: "target 42"}
	require.NoError(t, db.CreateTask(newer))
	other := &model.QueueTask{TaskType: model.TaskPriceCheck, ItemID: "MLB2", Status: model.StatusPending}
	require.NoError(t, db.CreateTask(other))
	noise := &model.QueueTask{TaskType: model.TaskBulkEdit, ItemID: "MLB1", Status: model.StatusPending}
	require.NoError(t, db.CreateTask(noise))

	statuses, err := db.LatestStatusByItem(model.TaskPriceCheck)
	require.NoError(t, err)
	require.Len(t, statuses, 2)
	require.Equal(t, model.StatusDone, statuses["MLB1"].Status)
	require.Equal(t, "target 42", statuses["MLB1"].Message)
	require.Equal(t, model.StatusPending, statuses["MLB2"].Status)
}
