package config

import (
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Config stores all configuration of the application.
// Values are read from app.yaml and overridden by SCRAPER_* environment variables.
type Config struct {
	ServerAddress string    `mapstructure:"server_address"`
	Log           Log       `mapstructure:"log"`
	Crawler       Crawler   `mapstructure:"crawler"`
	Geocoder      Geocoder  `mapstructure:"geocoder"`
	Warehouse     Warehouse `mapstructure:"warehouse"`
	Storage       Storage   `mapstructure:"storage"`
}

type Log struct {
	Level  string `mapstructure:"level"`
	Pretty bool   `mapstructure:"pretty"`
}

type Crawler struct {
	BaseURL    string            `mapstructure:"base_url"`
	State      string            `mapstructure:"state"`
	Cities     []string          `mapstructure:"cities"`
	Grades     map[string]string `mapstructure:"grades"`
	Headless   bool              `mapstructure:"headless"`
	Workers    int               `mapstructure:"workers"`
	Timeout    time.Duration     `mapstructure:"timeout"`
	PageSettle time.Duration     `mapstructure:"page_settle"`
	MaxPages   int               `mapstructure:"max_pages"`
	UserAgent  string            `mapstructure:"user_agent"`
}

type Geocoder struct {
	BaseURL    string        `mapstructure:"base_url"`
	UserAgent  string        `mapstructure:"user_agent"`
	Email      string        `mapstructure:"email"`
	Timeout    time.Duration `mapstructure:"timeout"`
	MinDelay   time.Duration `mapstructure:"min_delay"`
	MaxRetries int           `mapstructure:"max_retries"`
	ErrorWait  time.Duration `mapstructure:"error_wait"`
	// CacheSize caps the number of remembered lookups.
	CacheSize int `mapstructure:"cache_size"`
}

type Warehouse struct {
	// Driver is "postgres" or "bigquery".
	Driver          string `mapstructure:"driver"`
	DBSource        string `mapstructure:"db_source"`
	BigQueryProject string `mapstructure:"bigquery_project"`
	BigQueryDataset string `mapstructure:"bigquery_dataset"`
	RawTable        string `mapstructure:"raw_table"`
	EnrichedTable   string `mapstructure:"enriched_table"`
	ReviewsTable    string `mapstructure:"reviews_table"`
}

type Storage struct {
	Region   string `mapstructure:"region"`
	Endpoint string `mapstructure:"endpoint"`
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server_address", ":8080")
	v.SetDefault("log.level", "info")
	v.SetDefault("log.pretty", false)

	v.SetDefault("crawler.base_url", "https://www.greatschools.org")
	v.SetDefault("crawler.state", "california")
	v.SetDefault("crawler.cities", []string{"Irvine"})
	v.SetDefault("crawler.grades", map[string]string{"e": "Elementary", "m": "Middle", "h": "High"})
	v.SetDefault("crawler.headless", true)
	v.SetDefault("crawler.workers", 4)
	v.SetDefault("crawler.timeout", 10*time.Second)
	v.SetDefault("crawler.page_settle", 500*time.Millisecond)
	v.SetDefault("crawler.max_pages", 100)
	v.SetDefault("crawler.user_agent", "Mozilla/5.0 (X11; Linux x86_64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/122.0.0.0 Safari/537.36")

	v.SetDefault("geocoder.base_url", "https://nominatim.openstreetmap.org")
	v.SetDefault("geocoder.user_agent", "geo_encoding_grouped")
	v.SetDefault("geocoder.email", "")
	v.SetDefault("geocoder.timeout", 10*time.Second)
	v.SetDefault("geocoder.min_delay", time.Second)
	v.SetDefault("geocoder.max_retries", 2)
	v.SetDefault("geocoder.error_wait", 10*time.Second)
	v.SetDefault("geocoder.cache_size", 10000)

	v.SetDefault("warehouse.driver", "postgres")
	v.SetDefault("warehouse.db_source", "")
	v.SetDefault("warehouse.bigquery_project", "")
	v.SetDefault("warehouse.bigquery_dataset", "")
	v.SetDefault("warehouse.raw_table", "raw_school_info")
	v.SetDefault("warehouse.enriched_table", "stg_all_schools")
	v.SetDefault("warehouse.reviews_table", "school_reviews")

	v.SetDefault("storage.region", "us-west-2")
	v.SetDefault("storage.endpoint", "")
}

// LoadConfig reads configuration from app.yaml in path (optional) and the environment.
// A .env file in the working directory is loaded first when present.
func LoadConfig(path string) (config Config, err error) {
	_ = godotenv.Load()

	v := viper.New()
	setDefaults(v)

	v.AddConfigPath(path)
	v.SetConfigName("app")
	v.SetConfigType("yaml")

	v.SetEnvPrefix("scraper")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err = v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return config, err
		}
	}

	err = v.Unmarshal(&config)
	return config, err
}
