package config

import "time"

// Default provider declarations. Priority mirrors the aggregation order;
// weights mirror the aggregation weights so operators can reason about one
// table. All sources ship disabled except the free, keyless ones.
func defaultProviders() []ProviderConfig {
	mk := func(id string, enabled bool, baseURL, authEnv string, priority int, weight float64, ttl time.Duration) ProviderConfig {
		return ProviderConfig{
			ID:       id,
			Enabled:  enabled,
			BaseURL:  baseURL,
			AuthEnv:  authEnv,
			Priority: priority,
			Weight:   weight,
			TTL:      ttl,
			RateLimit: RateLimitConfig{
				Period:         time.Second,
				Limit:          5,
				AcquireTimeout: 200 * time.Millisecond,
			},
			Breaker: BreakerConfig{
				FailureRate:    0.5,
				MinCalls:       10,
				Window:         30 * time.Second,
				OpenDuration:   15 * time.Second,
				HalfOpenProbes: 3,
			},
			MaxConcurrent:   4,
			MaxRetries:      2,
			RetryBackoff:    200 * time.Millisecond,
			PerCallDeadline: 3 * time.Second,
		}
	}

	return []ProviderConfig{
		mk("iarc", false, "https://monographs.iarc.who.int/api", "LABELWISE_IARC_API_KEY", 1, 0.05, 7*24*time.Hour),
		mk("fda", true, "https://api.fda.gov", "LABELWISE_FDA_API_KEY", 2, 0.30, 24*time.Hour),
		mk("cir", false, "https://cir-reports.cir-safety.org/api", "", 3, 0.20, 7*24*time.Hour),
		mk("sccs", false, "https://health.ec.europa.eu/api/sccs", "", 4, 0.15, 7*24*time.Hour),
		mk("invima", false, "https://www.invima.gov.co/api", "", 5, 0.05, 7*24*time.Hour),
		mk("ewg", true, "https://www.ewg.org/skindeep", "LABELWISE_EWG_API_KEY", 6, 0.25, 24*time.Hour),
		mk("iccr", false, "https://www.iccr-cosmetics.org/api", "", 7, 0.10, 7*24*time.Hour),
		mk("incibeauty", false, "https://incibeauty.com/api", "LABELWISE_INCIBEAUTY_API_KEY", 8, 0.05, 48*time.Hour),
		mk("cosing", true, "https://api.tech.ec.europa.eu/cosing", "", 9, 0.05, 7*24*time.Hour),
		mk("pubchem", true, "https://pubchem.ncbi.nlm.nih.gov/rest/pug", "", 10, 0.05, 72*time.Hour),
	}
}

// Defaults returns a fully-populated configuration suitable for local
// development. File and environment values override it field by field.
func Defaults() *Config {
	return &Config{
		Server: ServerConfig{
			Port:            8080,
			Mode:            "release",
			ReadTimeout:     15 * time.Second,
			WriteTimeout:    30 * time.Second,
			ShutdownTimeout: 10 * time.Second,
		},
		Database: DatabaseConfig{
			Host:            "localhost",
			Port:            5432,
			User:            "labelwise",
			Password:        "labelwise",
			DBName:          "labelwise",
			SSLMode:         "disable",
			MaxConns:        20,
			MaxIdleConns:    5,
			ConnMaxLifetime: 30 * time.Minute,
		},
		Redis: RedisConfig{
			Enabled:      false,
			Addr:         "localhost:6379",
			DB:           0,
			PoolSize:     10,
			DialTimeout:  2 * time.Second,
			ReadTimeout:  time.Second,
			WriteTimeout: time.Second,
			KeyPrefix:    "labelwise",
		},
		MinIO: MinIOConfig{
			Enabled:  false,
			Endpoint: "localhost:9000",
			Bucket:   "ingredient-mirror",
			UseSSL:   false,
		},
		Kafka: KafkaConfig{
			Enabled:         false,
			Brokers:         []string{"localhost:9092"},
			GroupID:         "labelwise-reconciler",
			ProducerRetries: 3,
			WriteTimeout:    5 * time.Second,
		},
		Log: LogConfig{
			Level:  "info",
			Format: "json",
		},
		Providers: defaultProviders(),
		Cache: CacheConfig{
			MaxEntries:   10000,
			DefaultTTL:   time.Hour,
			RecordMaxAge: 24 * time.Hour,
		},
		Orchestrator: OrchestratorConfig{
			MaxGlobalInFlight:    64,
			OverallDeadline:      20 * time.Second,
			MinProvidersForFresh: 1,
			MaxTokens:            200,
			MaxTokenLength:       128,
		},
		Suitability: SuitabilityConfig{
			SuitableMin: 75,
			CautionMin:  50,
		},
	}
}
