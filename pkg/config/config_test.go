package config_test

import (
	"os"
	"path/filepath"
	"testing"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/kaundalabs/dumsor/pkg/config"
)

func TestConfig(t *testing.T) {
	RegisterFailHandler(Fail)
	RunSpecs(t, "Config Suite")
}

var _ = Describe("Configer config", func() {
	var tmpDir string

	BeforeEach(func() {
		var err error
		tmpDir, err = os.MkdirTemp("", "config-test-*")
		Expect(err).NotTo(HaveOccurred())
	})

	AfterEach(func() {
		os.RemoveAll(tmpDir)
	})

	Describe("LoadConfig", func() {
		It("returns default config when no config file exists", func() {
			c, err := config.NewConfiger(tmpDir)
			Expect(err).NotTo(HaveOccurred())

			cfg, err := c.LoadConfig()
			Expect(err).NotTo(HaveOccurred())
			Expect(cfg).NotTo(BeNil())

			defaults := config.NewDefaultConfig()
			Expect(cfg.Version).To(Equal(defaults.Version))
			Expect(cfg.Server.Listen).To(Equal(defaults.Server.Listen))
			Expect(cfg.Analyst.Account).To(BeEmpty())
		})

		It("loads a valid config file", func() {
			data := `version = 0

[analyst]
account = "ZEQWJME-NV17394"
semantic_model_file = "@DUMSOR.REPORT.STG/SEMANTIC.yaml"
debug = true

[warehouse]
user = "reporting"
role = "ANALYST"
`
			err := os.WriteFile(filepath.Join(tmpDir, "config.toml"), []byte(data), 0o600)
			Expect(err).NotTo(HaveOccurred())

			c, err := config.NewConfiger(tmpDir)
			Expect(err).NotTo(HaveOccurred())

			cfg, err := c.LoadConfig()
			Expect(err).NotTo(HaveOccurred())
			Expect(cfg.Analyst.Account).To(Equal("ZEQWJME-NV17394"))
			Expect(cfg.Analyst.SemanticModelFile).To(Equal("@DUMSOR.REPORT.STG/SEMANTIC.yaml"))
			Expect(cfg.Analyst.Debug).To(BeTrue())
			Expect(cfg.Warehouse.User).To(Equal("reporting"))
			Expect(cfg.Warehouse.Role).To(Equal("ANALYST"))
			// Unset fields fall back to defaults.
			Expect(cfg.Server.Listen).To(Equal(config.NewDefaultConfig().Server.Listen))
		})

		It("rejects an unsupported config version", func() {
			data := "version = 99\n"
			err := os.WriteFile(filepath.Join(tmpDir, "config.toml"), []byte(data), 0o600)
			Expect(err).NotTo(HaveOccurred())

			c, err := config.NewConfiger(tmpDir)
			Expect(err).NotTo(HaveOccurred())

			_, err = c.LoadConfig()
			Expect(err).To(HaveOccurred())
			Expect(err.Error()).To(ContainSubstring("unsupported config version"))
		})
	})

	Describe("SaveConfig", func() {
		It("round-trips a config through the file", func() {
			c, err := config.NewConfiger(tmpDir)
			Expect(err).NotTo(HaveOccurred())

			cfg := config.NewDefaultConfig()
			cfg.Analyst.Account = "ACME-XY12345"
			cfg.Warehouse.Database = "DUMSOR"

			Expect(c.SaveConfig(cfg)).To(Succeed())

			loaded, err := c.LoadConfig()
			Expect(err).NotTo(HaveOccurred())
			Expect(loaded.Analyst.Account).To(Equal("ACME-XY12345"))
			Expect(loaded.Warehouse.Database).To(Equal("DUMSOR"))
		})

		It("never persists secrets", func() {
			c, err := config.NewConfiger(tmpDir)
			Expect(err).NotTo(HaveOccurred())

			cfg := config.NewDefaultConfig()
			cfg.Analyst.Token = "super-secret-token"
			cfg.Warehouse.Password = "hunter2"

			Expect(c.SaveConfig(cfg)).To(Succeed())

			data, err := os.ReadFile(filepath.Join(tmpDir, "config.toml"))
			Expect(err).NotTo(HaveOccurred())
			Expect(string(data)).NotTo(ContainSubstring("super-secret-token"))
			Expect(string(data)).NotTo(ContainSubstring("hunter2"))
		})
	})

	Describe("GetConfigValue / SetConfigValue", func() {
		It("sets and gets a valid key", func() {
			c, err := config.NewConfiger(tmpDir)
			Expect(err).NotTo(HaveOccurred())

			Expect(c.SetConfigValue("warehouse.schema", "REPORT")).To(Succeed())

			got, err := c.GetConfigValue("warehouse.schema")
			Expect(err).NotTo(HaveOccurred())
			Expect(got).To(Equal("REPORT"))
		})

		It("rejects unknown keys", func() {
			c, err := config.NewConfiger(tmpDir)
			Expect(err).NotTo(HaveOccurred())

			Expect(c.SetConfigValue("warehouse.password", "nope")).NotTo(Succeed())
			_, err = c.GetConfigValue("bogus.key")
			Expect(err).To(HaveOccurred())
		})

		It("parses booleans for analyst.debug", func() {
			c, err := config.NewConfiger(tmpDir)
			Expect(err).NotTo(HaveOccurred())

			Expect(c.SetConfigValue("analyst.debug", "true")).To(Succeed())
			got, err := c.GetConfigValue("analyst.debug")
			Expect(err).NotTo(HaveOccurred())
			Expect(got).To(Equal("true"))

			Expect(c.SetConfigValue("analyst.debug", "not-a-bool")).NotTo(Succeed())
		})
	})

	Describe("ValidConfigKeys", func() {
		It("lists every supported key exactly once", func() {
			keys := config.ValidConfigKeys()
			Expect(keys).To(ContainElements(
				"analyst.account",
				"analyst.semantic_model_file",
				"warehouse.schema",
				"server.listen",
			))

			seen := map[string]int{}
			for _, k := range keys {
				seen[k]++
				Expect(config.IsValidConfigKey(k)).To(BeTrue())
			}
			for k, n := range seen {
				Expect(n).To(Equal(1), "duplicate key %s", k)
			}
		})
	})
})

var _ = Describe("InitViper", func() {
	var tmpDir string

	BeforeEach(func() {
		var err error
		tmpDir, err = os.MkdirTemp("", "viper-test-*")
		Expect(err).NotTo(HaveOccurred())
	})

	AfterEach(func() {
		os.RemoveAll(tmpDir)
		os.Unsetenv("DUMSOR_ANALYST_TOKEN")
	})

	It("resolves secrets from the environment only", func() {
		os.Setenv("DUMSOR_ANALYST_TOKEN", "env-token")

		v, err := config.InitViper(tmpDir)
		Expect(err).NotTo(HaveOccurred())

		cfg := config.FromViper(v)
		Expect(cfg.Analyst.Token).To(Equal("env-token"))
	})

	It("layers file values under environment values", func() {
		data := "[analyst]\naccount = \"FILE-ACCT\"\n"
		err := os.WriteFile(filepath.Join(tmpDir, "config.toml"), []byte(data), 0o600)
		Expect(err).NotTo(HaveOccurred())

		v, err := config.InitViper(tmpDir)
		Expect(err).NotTo(HaveOccurred())

		cfg := config.FromViper(v)
		Expect(cfg.Analyst.Account).To(Equal("FILE-ACCT"))
		Expect(cfg.Server.Listen).To(Equal(config.NewDefaultConfig().Server.Listen))
	})
})
