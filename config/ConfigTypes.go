package config

type config struct {
	Database DatabaseConfig
	Fubon    FubonConfig
	Server   ServerConfig
	Symbols  []string
}

type DatabaseConfig struct {
	Host     string
	Port     int
	User     string
	Password string
	DBName   string
}

type FubonConfig struct {
	BaseURL string
	APIKey  string
}

type ServerConfig struct {
	Port int
}
