package config

import (
	"strconv"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// DefaultEndpoint es el endpoint SOAP del servicio de firma y validación (BrokerClient).
const DefaultEndpoint = "https://services.sealsignportal.com/sealsign/ws/BrokerClient"

// Config agrupa la configuración de la aplicación (lectura vía Viper desde env y opcionalmente archivo).
type Config struct {
	App      AppConfig
	SealSign SealSignConfig
	Sandbox  SandboxConfig
}

// AppConfig configuración general de la aplicación.
type AppConfig struct {
	Env      string // development, staging, production
	Name     string
	LogLevel string
}

// SealSignConfig credenciales y transporte del servicio remoto de firma.
type SealSignConfig struct {
	Endpoint  string // URL del servicio SOAP
	Namespace string // targetNamespace del WSDL (prefijo tns de las operaciones)

	AccountID string // Cuenta registrada en el servidor
	Password  string // Secreto de la cuenta
	ClientID  string
	PIN       string // PIN que activa la llave de firma
	Profile   string // Perfil de firma (por defecto "Default")

	VerifyPeer bool          // Verificar el certificado TLS del servidor
	CAFile     string        // Bundle PEM de CA fijado (vacío = raíces del sistema)
	PeerName   string        // Hostname esperado en el certificado del servidor
	Timeout    time.Duration // Timeout por llamada SOAP

	ClientCertPath     string // Certificado cliente .pem o .p12 (opcional, mTLS)
	ClientKeyPath      string // Llave privada .pem (si ClientCertPath es solo el certificado)
	ClientCertPassword string // Contraseña del .p12

	CollectVerification bool // Ejecutar verify* después de firmar/sellar
}

// SandboxConfig configuración del servicio de firma local (modo dev).
type SandboxConfig struct {
	Addr         string
	TicketSecret string
}

// Load lee la configuración desde variables de entorno (y opcionalmente desde archivo).
// Las env vars tienen prioridad. Nombres esperados: APP_ENV, SEALSIGN_ACCOUNT_ID, SEALSIGN_PIN, etc.
func Load() (*Config, error) {
	v := viper.New()

	// Opcional: archivo de configuración (.env o config.env)
	v.SetConfigName(".env")
	v.SetConfigType("env")
	v.AddConfigPath(".")
	_ = v.ReadInConfig() // ignoramos error si no existe

	v.SetConfigName("config")
	v.AddConfigPath(".")
	v.AddConfigPath("./config")
	_ = v.ReadInConfig()

	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	return fromViper(v), nil
}

func fromViper(v *viper.Viper) *Config {
	return &Config{
		App: AppConfig{
			Env:      getString(v, "APP_ENV", "development"),
			Name:     getString(v, "APP_NAME", "sealsign"),
			LogLevel: getString(v, "LOG_LEVEL", "info"),
		},
		SealSign: SealSignConfig{
			Endpoint:  getString(v, "SEALSIGN_ENDPOINT", DefaultEndpoint),
			Namespace: getString(v, "SEALSIGN_NAMESPACE", ""),

			AccountID: getString(v, "SEALSIGN_ACCOUNT_ID", ""),
			Password:  getString(v, "SEALSIGN_PASSWORD", ""),
			ClientID:  getString(v, "SEALSIGN_CLIENT_ID", ""),
			PIN:       getString(v, "SEALSIGN_PIN", ""),
			Profile:   getString(v, "SEALSIGN_PROFILE", "Default"),

			VerifyPeer: getBool(v, "SEALSIGN_VERIFY_PEER", true),
			CAFile:     getString(v, "SEALSIGN_CA_FILE", ""),
			PeerName:   getString(v, "SEALSIGN_PEER_NAME", ""),
			Timeout:    time.Duration(getInt(v, "SEALSIGN_TIMEOUT_SECONDS", 60)) * time.Second,

			ClientCertPath:     getString(v, "SEALSIGN_CLIENT_CERT_PATH", ""),
			ClientKeyPath:      getString(v, "SEALSIGN_CLIENT_KEY_PATH", ""),
			ClientCertPassword: getString(v, "SEALSIGN_CLIENT_CERT_PASSWORD", ""),

			CollectVerification: getBool(v, "SEALSIGN_COLLECT_VERIFICATION", false),
		},
		Sandbox: SandboxConfig{
			Addr:         getString(v, "SANDBOX_ADDR", "127.0.0.1:8089"),
			TicketSecret: getString(v, "SANDBOX_TICKET_SECRET", ""),
		},
	}
}

func getString(v *viper.Viper, key, def string) string {
	if v.IsSet(key) {
		return v.GetString(key)
	}
	return def
}

func getInt(v *viper.Viper, key string, def int) int {
	if v.IsSet(key) {
		switch v.Get(key).(type) {
		case int:
			return v.GetInt(key)
		case string:
			n, err := strconv.Atoi(v.GetString(key))
			if err != nil {
				return def
			}
			return n
		default:
			return v.GetInt(key)
		}
	}
	return def
}

func getBool(v *viper.Viper, key string, def bool) bool {
	if v.IsSet(key) {
		switch v.Get(key).(type) {
		case bool:
			return v.GetBool(key)
		case string:
			b, err := strconv.ParseBool(v.GetString(key))
			if err != nil {
				return def
			}
			return b
		default:
			return v.GetBool(key)
		}
	}
	return def
}
