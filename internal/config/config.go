package config

type Config struct {
	Environment Environment
	Log         Log
	HTTP        HTTPServer
	BaseURL     string `env:"BASE_URL"`
	DatabaseURL string `env:"DATABASE_URL"`
	JWTSecret   string `env:"JWT_SECRET"`

	Lygos   Lygos   `envPrefix:"LYGOS_"`
	SMTP    SMTP    `envPrefix:"SMTP_"`
	SMS     SMS     `envPrefix:"SMS_"`
	Policy  Policy  `envPrefix:"POLICY_"`
	Webhook Webhook `envPrefix:"WEBHOOK_"`
	Sweep   Sweep   `envPrefix:"SWEEP_"`
}

type Lygos struct {
	BaseApiURL    string `env:"BASE_API_URL"`
	ApiKey        string `env:"API_KEY"`
	MerchantID    string `env:"MERCHANT_ID"`
	WebhookSecret string `env:"WEBHOOK_SECRET"`
}

type SMTP struct {
	Host     string `env:"HOST"`
	Port     string `env:"PORT" envDefault:"587"`
	Username string `env:"USERNAME"`
	Password string `env:"PASSWORD"`
	From     string `env:"FROM"`
}

type SMS struct {
	GatewayURL string `env:"GATEWAY_URL"`
	ApiKey     string `env:"API_KEY"`
	Sender     string `env:"SENDER" envDefault:"GroCollect"`
}

type Policy struct {
	PerishableHours    int `env:"PERISHABLE_HOURS" envDefault:"24"`
	NonPerishableHours int `env:"NON_PERISHABLE_HOURS" envDefault:"48"`
}

type Webhook struct {
	RateWindowSeconds int `env:"RATE_WINDOW_SECONDS" envDefault:"60"`
	RateMax           int `env:"RATE_MAX" envDefault:"20"`
}

type Sweep struct {
	IntervalSeconds int `env:"INTERVAL_SECONDS" envDefault:"300"`
}

type Environment struct {
	Name string `env:"ENVIRONMENT" envDefault:"development"`
}

type Log struct {
	Level  string `env:"LOG_LEVEL" envDefault:"info"`
	Format string `env:"LOG_FORMAT" envDefault:"json"`
}

type HTTPServer struct {
	Host string `env:"HTTP_HOST" envDefault:"0.0.0.0"`
	Port string `env:"HTTP_PORT" envDefault:"8080"`
}
