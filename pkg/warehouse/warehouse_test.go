package warehouse_test

import (
	"context"
	"database/sql"
	"errors"
	"os"
	"path/filepath"
	"testing"

	_ "github.com/mattn/go-sqlite3"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/kaundalabs/dumsor/pkg/logger"
	"github.com/kaundalabs/dumsor/pkg/warehouse"
)

func TestWarehouse(t *testing.T) {
	RegisterFailHandler(Fail)
	RunSpecs(t, "Warehouse Suite")
}

// fullConfig returns a config with every connection parameter present.
func fullConfig() warehouse.Config {
	return warehouse.Config{
		Account:   "ACME-XY12345",
		User:      "reporting",
		Password:  "pw",
		Role:      "ANALYST",
		Warehouse: "REPORT_WH",
		Database:  "DUMSOR",
		Schema:    "REPORT",
	}
}

var _ = Describe("Config.Enabled", func() {
	It("is enabled only when every parameter is present", func() {
		Expect(fullConfig().Enabled()).To(BeTrue())

		for _, clear := range []func(*warehouse.Config){
			func(c *warehouse.Config) { c.Account = "" },
			func(c *warehouse.Config) { c.User = "" },
			func(c *warehouse.Config) { c.Password = "" },
			func(c *warehouse.Config) { c.Role = "" },
			func(c *warehouse.Config) { c.Warehouse = "" },
			func(c *warehouse.Config) { c.Database = "" },
			func(c *warehouse.Config) { c.Schema = "" },
		} {
			cfg := fullConfig()
			clear(&cfg)
			Expect(cfg.Enabled()).To(BeFalse())
		}
	})
})

var _ = Describe("Executor.Execute", func() {
	var ctx context.Context

	BeforeEach(func() {
		ctx = context.Background()
	})

	Context("when no connection parameters are configured", func() {
		It("returns ErrDisabled for any input, never panicking", func() {
			e := warehouse.NewExecutor(warehouse.Config{}, logger.Nop())
			Expect(e.Disabled()).To(BeTrue())

			for _, stmt := range []string{"", "SELECT 1", "DROP TABLE outages", "not sql at all"} {
				_, err := e.Execute(ctx, stmt)
				Expect(errors.Is(err, warehouse.ErrDisabled)).To(BeTrue())
			}
		})
	})

	Context("against a seeded database", func() {
		var (
			dbPath string
			e      *warehouse.Executor
		)

		BeforeEach(func() {
			tmpDir, err := os.MkdirTemp("", "warehouse-test-*")
			Expect(err).NotTo(HaveOccurred())
			DeferCleanup(func() { os.RemoveAll(tmpDir) })

			dbPath = filepath.Join(tmpDir, "test.db")

			seed, err := sql.Open("sqlite3", dbPath)
			Expect(err).NotTo(HaveOccurred())
			_, err = seed.Exec(`
				CREATE TABLE outages (district TEXT, minutes INTEGER);
				INSERT INTO outages VALUES ('Ablekuma', 540), ('Ayawaso', 320), ('Okaikwei', 210);
			`)
			Expect(err).NotTo(HaveOccurred())
			Expect(seed.Close()).To(Succeed())

			e = warehouse.NewExecutor(fullConfig(), logger.Nop(), warehouse.WithOpener(
				func(context.Context) (*sql.DB, error) {
					return sql.Open("sqlite3", dbPath)
				},
			))
		})

		It("returns ordered columns and rows", func() {
			result, err := e.Execute(ctx, "SELECT district, minutes FROM outages ORDER BY minutes DESC")
			Expect(err).NotTo(HaveOccurred())

			Expect(result.Columns).To(Equal([]string{"district", "minutes"}))
			Expect(result.Rows).To(HaveLen(3))
			Expect(result.Rows[0][0]).To(Equal("Ablekuma"))
		})

		It("returns an empty row set without error", func() {
			result, err := e.Execute(ctx, "SELECT district FROM outages WHERE minutes > 10000")
			Expect(err).NotTo(HaveOccurred())
			Expect(result.Columns).To(Equal([]string{"district"}))
			Expect(result.Rows).To(BeEmpty())
		})

		It("wraps execution failures in a QueryError", func() {
			_, err := e.Execute(ctx, "SELECT nope FROM missing_table")
			Expect(err).To(HaveOccurred())

			var qerr *warehouse.QueryError
			Expect(errors.As(err, &qerr)).To(BeTrue())
			Expect(qerr.Error()).To(ContainSubstring("query failed"))
		})
	})

	Context("when the connection cannot be opened", func() {
		It("wraps the failure in a QueryError", func() {
			e := warehouse.NewExecutor(fullConfig(), logger.Nop(), warehouse.WithOpener(
				func(context.Context) (*sql.DB, error) {
					return nil, errors.New("connection refused")
				},
			))

			_, err := e.Execute(ctx, "SELECT 1")
			var qerr *warehouse.QueryError
			Expect(errors.As(err, &qerr)).To(BeTrue())
			Expect(errors.Is(err, warehouse.ErrDisabled)).To(BeFalse())
		})
	})
})
