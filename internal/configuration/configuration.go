package configuration

import (
	"net/url"
	"os"
	"strings"

	"github.com/jeremywohl/flatten"
	"github.com/mitchellh/mapstructure"
	"github.com/pkg/errors"
	"github.com/spf13/viper"

	"github.com/metal-toolbox/hwqa/internal/model"
)

const (
	defaultBaselineFile       = "baseline_config.json"
	defaultLimitsFile         = "sensor_limits.json"
	defaultReportDir          = "reports"
	defaultDryRunSnapshotFile = "dry_run_snapshot.json"
	defaultDryRunReadingsFile = "dry_run_readings.json"
)

// BMCConfig holds the lanplus session for the unit under test.
type BMCConfig struct {
	Host string `mapstructure:"host"`
	User string `mapstructure:"user"`
	Pass string `mapstructure:"pass"`
}

// BaselineServiceConfig points at the central baseline service. When the
// endpoint is empty, baselines and limits come from local files.
type BaselineServiceConfig struct {
	Endpoint string `mapstructure:"endpoint"`
}

// Configuration holds application configuration read from a YAML file or
// set by env variables.
// nolint:govet // prefer readability over field alignment optimization for this case.
type Configuration struct {
	// LogLevel is the app verbose logging level.
	// one of - info, debug, trace
	LogLevel string `mapstructure:"log_level"`

	// BoardModel identifies the motherboard under test, and selects the
	// baseline when fetching from the baseline service.
	BoardModel string `mapstructure:"board_model"`

	// BaselineFile and LimitsFile are the local reference documents.
	BaselineFile string `mapstructure:"baseline_file"`
	LimitsFile   string `mapstructure:"limits_file"`

	// ReportDir is where per-run report directories are written.
	ReportDir string `mapstructure:"report_dir"`

	// BMC defines the out-of-band session parameters.
	BMC *BMCConfig `mapstructure:"bmc"`

	// BaselineService defines the optional central baseline source.
	BaselineService *BaselineServiceConfig `mapstructure:"baseline_service"`

	// DryRun simulates the BMC and replays saved collector output.
	DryRun bool `mapstructure:"dry_run"`

	// DryRunSnapshotFile and DryRunReadingsFile are the saved collector
	// outputs replayed when DryRun is set.
	DryRunSnapshotFile string `mapstructure:"dry_run_snapshot_file"`
	DryRunReadingsFile string `mapstructure:"dry_run_readings_file"`

	EnableProfiling bool `mapstructure:"enable_profiling"`
}

// New creates an empty configuration struct.
func New() *Configuration {
	config := &Configuration{
		BaselineFile:       defaultBaselineFile,
		LimitsFile:         defaultLimitsFile,
		ReportDir:          defaultReportDir,
		DryRunSnapshotFile: defaultDryRunSnapshotFile,
		DryRunReadingsFile: defaultDryRunReadingsFile,
	}

	// these are initialized here so viper can read in configuration from env vars
	// once https://github.com/spf13/viper/pull/1429 is merged, this can go.
	config.BMC = &BMCConfig{}
	config.BaselineService = &BaselineServiceConfig{}

	return config
}

func (c *Configuration) AsLogFields() []any {
	return []any{
		"logLevel", c.LogLevel,
		"boardModel", c.BoardModel,
		"baselineFile", c.BaselineFile,
		"limitsFile", c.LimitsFile,
		"reportDir", c.ReportDir,
		"bmcHost", c.BMC.Host,
		"bmcUser", c.BMC.User,
		"baselineService", c.BaselineService.Endpoint,
		"dryRun", c.DryRun,
		"enableProfiling", c.EnableProfiling,
	}
}

func (c *Configuration) LoadArgs(args *model.Args) {
	c.LogLevel = args.LogLevel
	c.EnableProfiling = args.EnableProfiling
	c.DryRun = args.DryRun

	if args.BaselineFile != "" {
		c.BaselineFile = args.BaselineFile
	}

	if args.LimitsFile != "" {
		c.LimitsFile = args.LimitsFile
	}

	if args.ReportDir != "" {
		c.ReportDir = args.ReportDir
	}
}

// Load the application configuration
// Reads in the configFile when available and overrides from environment variables.
func Load(args *model.Args) (*Configuration, error) {
	viperConfig := viper.New()
	viperConfig.SetConfigType("yaml")
	viperConfig.SetEnvPrefix(model.AppName)
	viperConfig.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viperConfig.AutomaticEnv()

	if args.ConfigFile != "" {
		fh, err := os.Open(args.ConfigFile)
		if err != nil {
			return nil, errors.Wrap(model.ErrConfig, err.Error())
		}

		if err = viperConfig.ReadConfig(fh); err != nil {
			return nil, errors.Wrap(model.ErrConfig, "ReadConfig error: "+err.Error())
		}
	}

	config := New()

	if err := config.envBindVars(viperConfig); err != nil {
		return nil, errors.Wrap(model.ErrConfig, "env var bind error: "+err.Error())
	}

	if err := viperConfig.Unmarshal(config); err != nil {
		return nil, errors.Wrap(model.ErrConfig, "Unmarshal error: "+err.Error())
	}

	config.LoadArgs(args)
	config.envVarAppOverrides(viperConfig)

	if err := config.envVarBMCOverrides(viperConfig); err != nil {
		return nil, errors.Wrap(model.ErrConfig, "bmc env overrides error: "+err.Error())
	}

	if err := config.envVarBaselineServiceOverrides(viperConfig); err != nil {
		return nil, errors.Wrap(model.ErrConfig, "baseline service env overrides error: "+err.Error())
	}

	return config, nil
}

func (c *Configuration) envVarAppOverrides(viperConfig *viper.Viper) {
	if logLevel := viperConfig.GetString("log.level"); logLevel != "" {
		c.LogLevel = logLevel
	}

	if boardModel := viperConfig.GetString("board.model"); boardModel != "" {
		c.BoardModel = boardModel
	}
}

// envBindVars binds environment variables to the struct
// without a configuration file being unmarshalled,
// this is a workaround for a viper bug,
//
// This can be replaced by the solution in https://github.com/spf13/viper/pull/1429
// once that PR is merged.
func (c *Configuration) envBindVars(viperConfig *viper.Viper) error {
	envKeysMap := map[string]interface{}{}
	if err := mapstructure.Decode(c, &envKeysMap); err != nil {
		return err
	}

	// Flatten nested conf map
	flat, err := flatten.Flatten(envKeysMap, "", flatten.DotStyle)
	if err != nil {
		return errors.Wrap(err, "Unable to flatten configuration")
	}

	for k := range flat {
		if err := viperConfig.BindEnv(k); err != nil {
			return errors.Wrap(model.ErrConfig, "env var bind error: "+err.Error())
		}
	}

	return nil
}

func (c *Configuration) envVarBMCOverrides(viperConfig *viper.Viper) error {
	if c.BMC == nil {
		c.BMC = &BMCConfig{}
	}

	if viperConfig.GetString("bmc.host") != "" {
		c.BMC.Host = viperConfig.GetString("bmc.host")
	}

	if viperConfig.GetString("bmc.user") != "" {
		c.BMC.User = viperConfig.GetString("bmc.user")
	}

	if viperConfig.GetString("bmc.pass") != "" {
		c.BMC.Pass = viperConfig.GetString("bmc.pass")
	}

	if c.DryRun {
		return nil
	}

	if c.BMC.Host != "" && (c.BMC.User == "" || c.BMC.Pass == "") {
		return errors.New("bmc.host set but bmc.user or bmc.pass missing")
	}

	return nil
}

func (c *Configuration) envVarBaselineServiceOverrides(viperConfig *viper.Viper) error {
	if c.BaselineService == nil {
		c.BaselineService = &BaselineServiceConfig{}
	}

	if viperConfig.GetString("baseline.service.endpoint") != "" {
		c.BaselineService.Endpoint = viperConfig.GetString("baseline.service.endpoint")
	}

	if c.BaselineService.Endpoint == "" {
		return nil
	}

	if _, err := url.Parse(c.BaselineService.Endpoint); err != nil {
		return errors.New("baseline service endpoint URL error: " + err.Error())
	}

	if c.BoardModel == "" {
		return errors.New("baseline service configured but board_model not defined")
	}

	return nil
}
