package steps

import (
	"context"
	"fmt"
	"strings"

	"github.com/cucumber/godog"

	"github.com/andrescamacho/skamkraft-go/internal/adapters/persistence"
	"github.com/andrescamacho/skamkraft-go/internal/application/ledger"
	domainLedger "github.com/andrescamacho/skamkraft-go/internal/domain/ledger"
	"github.com/andrescamacho/skamkraft-go/test/helpers"
)

type statisticsContext struct {
	store     persistence.KeyValueStore
	tracker   *ledger.Tracker
	importErr error
}

// InitializeStatisticsScenario registers the transaction statistics steps
func InitializeStatisticsScenario(sc *godog.ScenarioContext) {
	c := &statisticsContext{}

	sc.Before(func(ctx context.Context, _ *godog.Scenario) (context.Context, error) {
		if err := helpers.TruncateAllTables(); err != nil {
			return ctx, fmt.Errorf("failed to truncate tables: %w", err)
		}
		c.store = persistence.NewGormKeyValueStore(helpers.SharedTestDB)
		c.tracker = nil
		c.importErr = nil
		return ctx, nil
	})

	sc.Step(`^a statistics tracker on the database$`, c.trackerOnDatabase)
	sc.Step(`^start credits of (\d+)$`, c.startCredits)

	sc.Step(`^I record transactions:$`, c.recordTransactions)
	sc.Step(`^the tracker is restarted$`, c.trackerOnDatabase)
	sc.Step(`^I reset the statistics$`, c.resetStatistics)
	sc.Step(`^I import a statistics document with version (\d+)$`, c.importVersion)

	sc.Step(`^the summary should show revenue (\d+), expenses (\d+) and profit (-?\d+)$`, c.summaryShouldShow)
	sc.Step(`^the most profitable good should be "([^"]*)" with profit (-?\d+)$`, c.mostProfitableGood)
	sc.Step(`^the tracker should hold (\d+) transactions$`, c.trackerShouldHold)
	sc.Step(`^the start credits should be (\d+)$`, c.startCreditsShouldBe)
	sc.Step(`^the import should fail with "([^"]*)"$`, c.importShouldFail)
}

// trackerOnDatabase builds a tracker and loads whatever the store holds
func (c *statisticsContext) trackerOnDatabase() error {
	c.tracker = ledger.NewTracker(c.store, nil, nil)
	return c.tracker.Load(context.Background())
}

func (c *statisticsContext) startCredits(credits int64) error {
	return c.tracker.SetStartCredits(context.Background(), credits)
}

func (c *statisticsContext) recordTransactions(table *godog.Table) error {
	rows, err := tableRows(table)
	if err != nil {
		return err
	}

	ctx := context.Background()
	for _, row := range rows {
		units, err := atoi(row["units"])
		if err != nil {
			return err
		}
		total, err := atoi(row["total"])
		if err != nil {
			return err
		}

		switch domainLedger.TransactionType(row["type"]) {
		case domainLedger.TransactionTypePurchase:
			_, err = c.tracker.RecordPurchase(ctx, row["ship"], row["good"], units, int64(total), "X1-A1")
		case domainLedger.TransactionTypeSale:
			_, err = c.tracker.RecordSale(ctx, row["ship"], row["good"], units, int64(total), "X1-A1")
		case domainLedger.TransactionTypeRefuel:
			_, err = c.tracker.RecordRefuel(ctx, row["ship"], units, int64(total), "X1-A1")
		default:
			return fmt.Errorf("unsupported transaction type %q", row["type"])
		}
		if err != nil {
			return fmt.Errorf("failed to record %s: %w", row["type"], err)
		}
	}
	return nil
}

func (c *statisticsContext) resetStatistics() error {
	return c.tracker.Reset(context.Background())
}

func (c *statisticsContext) importVersion(version int) error {
	c.importErr = c.tracker.Import(context.Background(), domainLedger.ExportData{Version: version})
	return nil
}

func (c *statisticsContext) summaryShouldShow(revenue, expenses, profit int64) error {
	summary := c.tracker.Summary()
	if summary.TotalRevenue != revenue || summary.TotalExpenses != expenses || summary.TotalProfit != profit {
		return fmt.Errorf("expected revenue %d, expenses %d, profit %d; got %d, %d, %d",
			revenue, expenses, profit, summary.TotalRevenue, summary.TotalExpenses, summary.TotalProfit)
	}
	return nil
}

func (c *statisticsContext) mostProfitableGood(good string, profit int64) error {
	goods := c.tracker.MostProfitableGoods(1)
	if len(goods) == 0 {
		return fmt.Errorf("no goods reported")
	}
	if goods[0].Good != good || goods[0].Profit != profit {
		return fmt.Errorf("expected %s with profit %d, got %s with %d", good, profit, goods[0].Good, goods[0].Profit)
	}
	return nil
}

func (c *statisticsContext) trackerShouldHold(count int) error {
	if got := len(c.tracker.Transactions()); got != count {
		return fmt.Errorf("expected %d transactions, got %d", count, got)
	}
	return nil
}

func (c *statisticsContext) startCreditsShouldBe(credits int64) error {
	if got := c.tracker.StartCredits(); got != credits {
		return fmt.Errorf("expected start credits %d, got %d", credits, got)
	}
	return nil
}

func (c *statisticsContext) importShouldFail(fragment string) error {
	if c.importErr == nil {
		return fmt.Errorf("expected the import to fail")
	}
	if !strings.Contains(c.importErr.Error(), fragment) {
		return fmt.Errorf("expected error containing %q, got %q", fragment, c.importErr.Error())
	}
	return nil
}
