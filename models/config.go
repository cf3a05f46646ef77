package models

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"dario.cat/mergo"
	"github.com/equinor/radix-common/utils/pointers"
	"gopkg.in/yaml.v3"
	corev1 "k8s.io/api/core/v1"
	"k8s.io/apimachinery/pkg/util/validation"
)

// Config instance variables
type Config struct {
	Namespace          string        `yaml:"namespace"`
	NatsURL            string        `yaml:"natsUrl"`
	ServiceName        string        `yaml:"serviceName"`
	ServiceVersion     string        `yaml:"serviceVersion"`
	Port               string        `yaml:"port"`
	Kubeconfig         string        `yaml:"kubeconfig"`
	InputsDir          string        `yaml:"inputsDir"`
	OutputsDir         string        `yaml:"outputsDir"`
	ImagePullPolicy    string        `yaml:"imagePullPolicy"`
	TTLFloorSeconds    *int32        `yaml:"ttlFloorSeconds"`
	DeleteOnCompletion *bool         `yaml:"deleteWorkloads"`
	PollInterval       time.Duration `yaml:"pollInterval"`
	MaxPollInterval    time.Duration `yaml:"maxPollInterval"`
	WatchGrace         time.Duration `yaml:"watchGrace"`
	WatchTimeout       time.Duration `yaml:"watchTimeout"`
	SubmitWorkers      int           `yaml:"submitWorkers"`
	QueueSize          int           `yaml:"queueSize"`
	LogBufferLines     int           `yaml:"logBufferLines"`
	HistoryLimit       int           `yaml:"historyLimit"`
	WebhookURL         string        `yaml:"webhookUrl"`
	EventsSubject      string        `yaml:"eventsSubject"`
	LogLevel           string        `yaml:"logLevel"`
	LogPretty          bool          `yaml:"logPretty"`
}

// ConfigurationError A configuration value is missing or malformed
type ConfigurationError struct {
	Key string
	Err error
}

func (e *ConfigurationError) Error() string {
	return fmt.Sprintf("configuration %s: %v", e.Key, e.Err)
}

func (e *ConfigurationError) Unwrap() error {
	return e.Err
}

// DefaultConfig Values used when neither the environment nor the config file sets them
func DefaultConfig() Config {
	return Config{
		Namespace:          "default",
		NatsURL:            "nats://127.0.0.1:4222",
		ServiceName:        "zefiro-job",
		ServiceVersion:     "1.0.0",
		Port:               "8080",
		InputsDir:          "/inputs",
		OutputsDir:         "/outputs",
		ImagePullPolicy:    string(corev1.PullIfNotPresent),
		TTLFloorSeconds:    pointers.Ptr[int32](300),
		DeleteOnCompletion: pointers.Ptr(true),
		PollInterval:       5 * time.Second,
		MaxPollInterval:    30 * time.Second,
		WatchGrace:         10 * time.Minute,
		WatchTimeout:       24 * time.Hour,
		SubmitWorkers:      1,
		QueueSize:          64,
		LogBufferLines:     10000,
		HistoryLimit:       100,
		LogLevel:           "info",
	}
}

// NewConfigFromEnv Constructor. Reads the file named by ZEFIRO_CONFIG_FILE when set
func NewConfigFromEnv() (*Config, error) {
	return NewConfig(strings.TrimSpace(os.Getenv("ZEFIRO_CONFIG_FILE")))
}

// NewConfig Constructor. Environment variables take precedence over the config file, the file over defaults
func NewConfig(configFile string) (*Config, error) {
	cfg, err := configFromEnv()
	if err != nil {
		return nil, err
	}
	if len(configFile) > 0 {
		fileCfg, err := configFromFile(configFile)
		if err != nil {
			return nil, err
		}
		if err := mergo.Merge(cfg, fileCfg, mergo.WithoutDereference); err != nil {
			return nil, &ConfigurationError{Key: "file", Err: err}
		}
	}
	if err := mergo.Merge(cfg, DefaultConfig(), mergo.WithoutDereference); err != nil {
		return nil, &ConfigurationError{Key: "defaults", Err: err}
	}
	if len(cfg.EventsSubject) == 0 {
		cfg.EventsSubject = cfg.ServiceName + ".events"
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func configFromFile(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, &ConfigurationError{Key: "file", Err: err}
	}
	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, &ConfigurationError{Key: "file", Err: fmt.Errorf("failed to parse %s: %w", path, err)}
	}
	return &cfg, nil
}

func configFromEnv() (*Config, error) {
	cfg := Config{
		Namespace:       env("ZEFIRO_NAMESPACE"),
		NatsURL:         env("ZEFIRO_NATS_URL"),
		ServiceName:     env("ZEFIRO_SERVICE_NAME"),
		ServiceVersion:  env("ZEFIRO_SERVICE_VERSION"),
		Port:            env("ZEFIRO_PORT"),
		Kubeconfig:      env("ZEFIRO_KUBECONFIG"),
		InputsDir:       env("ZEFIRO_INPUTS_DIR"),
		OutputsDir:      env("ZEFIRO_OUTPUTS_DIR"),
		ImagePullPolicy: env("ZEFIRO_IMAGE_PULL_POLICY"),
		WebhookURL:      env("ZEFIRO_WEBHOOK_URL"),
		EventsSubject:   env("ZEFIRO_EVENTS_SUBJECT"),
		LogLevel:        env("LOG_LEVEL"),
		LogPretty:       envVarIsTrueOrYes(env("LOG_PRETTY")),
	}
	cfg.DeleteOnCompletion = parseDeleteToggle(env("ZEFIRO_DELETE_WORKLOADS"))
	if cfg.DeleteOnCompletion == nil {
		cfg.DeleteOnCompletion = parseDeleteToggle(env("CALRISSIAN_DELETE_PODS"))
	}

	var errs []error
	if ttl, err := parseInt("ZEFIRO_TTL_FLOOR_SECONDS"); err != nil {
		errs = append(errs, err)
	} else if ttl != nil {
		cfg.TTLFloorSeconds = pointers.Ptr(int32(*ttl))
	}
	setDuration("ZEFIRO_POLL_INTERVAL", &cfg.PollInterval, &errs)
	setDuration("ZEFIRO_MAX_POLL_INTERVAL", &cfg.MaxPollInterval, &errs)
	setDuration("ZEFIRO_WATCH_GRACE", &cfg.WatchGrace, &errs)
	setDuration("ZEFIRO_WATCH_TIMEOUT", &cfg.WatchTimeout, &errs)
	setInt("ZEFIRO_SUBMIT_WORKERS", &cfg.SubmitWorkers, &errs)
	setInt("ZEFIRO_QUEUE_SIZE", &cfg.QueueSize, &errs)
	setInt("ZEFIRO_LOG_BUFFER_LINES", &cfg.LogBufferLines, &errs)
	setInt("ZEFIRO_HISTORY_LIMIT", &cfg.HistoryLimit, &errs)
	if err := errors.Join(errs...); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate Checks that the merged configuration is usable
func (c *Config) Validate() error {
	var errs []error
	if msgs := validation.IsDNS1123Label(c.Namespace); len(msgs) > 0 {
		errs = append(errs, &ConfigurationError{Key: "namespace", Err: errors.New(strings.Join(msgs, "; "))})
	}
	if len(c.NatsURL) == 0 {
		errs = append(errs, &ConfigurationError{Key: "natsUrl", Err: errors.New("must not be empty")})
	}
	if port, err := strconv.Atoi(c.Port); err != nil || port <= 0 || port > 65535 {
		errs = append(errs, &ConfigurationError{Key: "port", Err: fmt.Errorf("invalid port %q", c.Port)})
	}
	switch corev1.PullPolicy(c.ImagePullPolicy) {
	case corev1.PullAlways, corev1.PullIfNotPresent, corev1.PullNever:
	default:
		errs = append(errs, &ConfigurationError{Key: "imagePullPolicy", Err: fmt.Errorf("unsupported pull policy %q", c.ImagePullPolicy)})
	}
	if c.TTLFloorSeconds != nil && *c.TTLFloorSeconds < 0 {
		errs = append(errs, &ConfigurationError{Key: "ttlFloorSeconds", Err: errors.New("must not be negative")})
	}
	if c.PollInterval <= 0 {
		errs = append(errs, &ConfigurationError{Key: "pollInterval", Err: errors.New("must be positive")})
	}
	if c.MaxPollInterval < c.PollInterval {
		errs = append(errs, &ConfigurationError{Key: "maxPollInterval", Err: errors.New("must not be less than pollInterval")})
	}
	if c.WatchTimeout <= 0 {
		errs = append(errs, &ConfigurationError{Key: "watchTimeout", Err: errors.New("must be positive")})
	}
	if c.SubmitWorkers < 1 {
		errs = append(errs, &ConfigurationError{Key: "submitWorkers", Err: errors.New("must be at least 1")})
	}
	if c.QueueSize < 1 {
		errs = append(errs, &ConfigurationError{Key: "queueSize", Err: errors.New("must be at least 1")})
	}
	if c.LogBufferLines < 1 {
		errs = append(errs, &ConfigurationError{Key: "logBufferLines", Err: errors.New("must be at least 1")})
	}
	if c.HistoryLimit < 1 {
		errs = append(errs, &ConfigurationError{Key: "historyLimit", Err: errors.New("must be at least 1")})
	}
	return errors.Join(errs...)
}

// DeleteWorkloads Finished workloads are deleted from the cluster
func (c *Config) DeleteWorkloads() bool {
	return c.DeleteOnCompletion == nil || *c.DeleteOnCompletion
}

// TTLFloor Minimum seconds a finished workload is kept by the cluster
func (c *Config) TTLFloor() int32 {
	if c.TTLFloorSeconds == nil {
		return 0
	}
	return *c.TTLFloorSeconds
}

// WatchTimeoutFor Upper bound on monitoring a workload with the given time limit in seconds
func (c *Config) WatchTimeoutFor(timeLimit uint64) time.Duration {
	if timeLimit == 0 {
		return c.WatchTimeout
	}
	return time.Duration(timeLimit)*time.Second + c.WatchGrace
}

// parseDeleteToggle Returns nil when the value is unset so the default applies
func parseDeleteToggle(value string) *bool {
	if len(value) == 0 {
		return nil
	}
	switch strings.ToLower(value) {
	case "false", "no", "0":
		return pointers.Ptr(false)
	default:
		return pointers.Ptr(true)
	}
}

func parseInt(key string) (*int, error) {
	value := env(key)
	if len(value) == 0 {
		return nil, nil
	}
	i, err := strconv.Atoi(value)
	if err != nil {
		return nil, &ConfigurationError{Key: key, Err: err}
	}
	return &i, nil
}

func setInt(key string, target *int, errs *[]error) {
	i, err := parseInt(key)
	if err != nil {
		*errs = append(*errs, err)
		return
	}
	if i != nil {
		*target = *i
	}
}

func setDuration(key string, target *time.Duration, errs *[]error) {
	value := env(key)
	if len(value) == 0 {
		return
	}
	d, err := time.ParseDuration(value)
	if err != nil {
		*errs = append(*errs, &ConfigurationError{Key: key, Err: err})
		return
	}
	*target = d
}
