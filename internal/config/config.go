package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Duration is a time.Duration that unmarshals from yaml scalars like "2s"
// or "700ms".
type Duration time.Duration

// Std returns the value as a time.Duration.
func (d Duration) Std() time.Duration { return time.Duration(d) }

func (d *Duration) UnmarshalYAML(value *yaml.Node) error {
	var s string
	if err := value.Decode(&s); err != nil {
		return err
	}
	parsed, err := time.ParseDuration(s)
	if err != nil {
		return fmt.Errorf("parse duration %q: %w", s, err)
	}
	*d = Duration(parsed)
	return nil
}

// Config holds everything a campaign run needs. Values come from
// campaign.yaml, with environment variables (optionally via a .env file)
// taking precedence.
type Config struct {
	Spreadsheet string `yaml:"spreadsheet"`
	StateFile   string `yaml:"state_file"`
	LedgerDB    string `yaml:"ledger_db"`

	Messages  Messages  `yaml:"messages"`
	Statuses  Statuses  `yaml:"statuses"`
	Detection Detection `yaml:"detection"`
	Pauses    Pauses    `yaml:"pauses"`
	Browser   Browser   `yaml:"browser"`
}

// Messages points at the campaign's two text templates and the image that is
// sent to every contact.
type Messages struct {
	First  string `yaml:"first"`
	Second string `yaml:"second"`
	Image  string `yaml:"image"`

	// Greeting is a format string receiving the contact's first name.
	// GreetingFallback is used when the row has no name.
	Greeting         string `yaml:"greeting"`
	GreetingFallback string `yaml:"greeting_fallback"`
}

// Statuses are the values written into the "Message Sent?" column.
type Statuses struct {
	Sent    string `yaml:"sent"`
	NotSent string `yaml:"not_sent"`
}

// Detection configures the failure-screen classifier.
type Detection struct {
	ReferenceDir   string   `yaml:"reference_dir"`
	PhoneNotFound  []string `yaml:"phone_not_found"`
	PageNotFound   string   `yaml:"page_not_found"`
	PhoneThreshold float64  `yaml:"phone_threshold"`
	PageThreshold  float64  `yaml:"page_threshold"`
	Retries        int      `yaml:"retries"`
	RetryDelay     Duration `yaml:"retry_delay"`
}

// Pauses are the fixed waits that let WhatsApp Web render between
// automation steps, plus the randomized pause between contacts.
type Pauses struct {
	Render      Duration `yaml:"render"`
	AfterImage  Duration `yaml:"after_image"`
	AfterPaste  Duration `yaml:"after_paste"`
	BeforeClose Duration `yaml:"before_close"`
	MinBetween  Duration `yaml:"min_between"`
	MaxBetween  Duration `yaml:"max_between"`
}

// Browser controls how the rod driver launches or attaches to Chrome.
type Browser struct {
	Bin        string `yaml:"bin"`
	ControlURL string `yaml:"control_url"`
	Headless   bool   `yaml:"headless"`
}

// Default returns the configuration matching a stock campaign layout.
func Default() *Config {
	return &Config{
		Spreadsheet: "excel.xlsx",
		StateFile:   "run_state.txt",
		LedgerDB:    "sent.db",
		Messages: Messages{
			First:            "messages/first_message.txt",
			Second:           "messages/second_message.txt",
			Image:            "messages/image.jpg",
			Greeting:         "היי %s!",
			GreetingFallback: "היי!",
		},
		Statuses: Statuses{
			Sent:    "כן",
			NotSent: "לא",
		},
		Detection: Detection{
			ReferenceDir:   "images",
			PhoneNotFound:  []string{"not_found.png", "not_found2.png"},
			PageNotFound:   "page_404_whatsapp.png",
			PhoneThreshold: 0.5,
			PageThreshold:  0.8,
			Retries:        3,
			RetryDelay:     Duration(time.Second),
		},
		Pauses: Pauses{
			Render:      Duration(5 * time.Second),
			AfterImage:  Duration(3 * time.Second),
			AfterPaste:  Duration(2 * time.Second),
			BeforeClose: Duration(700 * time.Millisecond),
			MinBetween:  Duration(2 * time.Second),
			MaxBetween:  Duration(5 * time.Second),
		},
	}
}

// Load reads campaign.yaml (if present), applies .env and environment
// overrides, and returns the merged configuration.
func Load(path string) (*Config, error) {
	cfg := Default()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			if !os.IsNotExist(err) {
				return nil, fmt.Errorf("read config %s: %w", path, err)
			}
		} else if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parse config %s: %w", path, err)
		}
	}

	// .env is optional; environment always wins over the yaml file.
	_ = godotenv.Load()
	cfg.applyEnvOverrides()

	return cfg, nil
}

func (c *Config) applyEnvOverrides() {
	c.Spreadsheet = getEnv("OUTREACH_SPREADSHEET", c.Spreadsheet)
	c.StateFile = getEnv("OUTREACH_STATE_FILE", c.StateFile)
	c.LedgerDB = getEnv("OUTREACH_LEDGER_DB", c.LedgerDB)
	c.Messages.First = getEnv("OUTREACH_FIRST_MESSAGE", c.Messages.First)
	c.Messages.Second = getEnv("OUTREACH_SECOND_MESSAGE", c.Messages.Second)
	c.Messages.Image = getEnv("OUTREACH_IMAGE", c.Messages.Image)
	c.Browser.Bin = getEnv("OUTREACH_BROWSER_BIN", c.Browser.Bin)
	c.Browser.ControlURL = getEnv("OUTREACH_BROWSER_URL", c.Browser.ControlURL)
	c.Browser.Headless = getEnvBool("OUTREACH_HEADLESS", c.Browser.Headless)
}

// Validate checks that the spreadsheet, templates and image exist before any
// row is touched. These are configuration-level failures that halt the run.
func (c *Config) Validate() error {
	for _, f := range []struct{ label, path string }{
		{"spreadsheet", c.Spreadsheet},
		{"first message template", c.Messages.First},
		{"second message template", c.Messages.Second},
		{"image", c.Messages.Image},
	} {
		if _, err := os.Stat(f.path); err != nil {
			return fmt.Errorf("%s %s: %w", f.label, f.path, err)
		}
	}
	return nil
}

func getEnv(key, fallback string) string {
	if value, exists := os.LookupEnv(key); exists && value != "" {
		return value
	}
	return fallback
}

func getEnvBool(key string, fallback bool) bool {
	if value, exists := os.LookupEnv(key); exists {
		if b, err := strconv.ParseBool(value); err == nil {
			return b
		}
	}
	return fallback
}
