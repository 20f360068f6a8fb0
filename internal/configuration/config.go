package configuration

import (
	"encoding/json"
	"os"
)

type MongoConfig struct {
	Uri                string `json:"uri"`
	Database           string `json:"database"`
	MessagesCollection string `json:"messagesCollection"`
	UsersCollection    string `json:"usersCollection"`
	OrdersCollection   string `json:"ordersCollection"`
	SocketRoute        string `json:"socketRoute"`
}

type ServerConfig struct {
	AppPort        int      `json:"app_port"`
	SocketPort     int      `json:"socket_port"`
	AllowedOrigins []string `json:"allowed_origins"`
}

type RedisConfig struct {
	Addr string `json:"addr"`
}

type PushConfig struct {
	Endpoint string `json:"endpoint"`
	ApiKey   string `json:"api_key"`
}

type AuthConfig struct {
	JwtSecret     string `json:"jwt_secret"`
	TokenTTLHours int    `json:"token_ttl_hours"`
}

type Config struct {
	Mongo  MongoConfig  `json:"mongo"`
	Server ServerConfig `json:"server"`
	Redis  RedisConfig  `json:"redis"`
	Push   PushConfig   `json:"push"`
	Auth   AuthConfig   `json:"auth"`
}

func LoadConfig(config_path string) (*Config, error) {
	file, err := os.ReadFile(config_path)
	if err != nil {
		return nil, err
	}

	var config Config
	err = json.Unmarshal(file, &config)
	if err != nil {
		return nil, err
	}

	if config.Auth.TokenTTLHours == 0 {
		config.Auth.TokenTTLHours = 24
	}

	return &config, nil
}
