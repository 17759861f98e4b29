// Package sealsign adapta el servicio remoto de firma y validación (SOAP BrokerClient)
// a los contratos de módulo del firmador PDF (pkg/pades).
//
// Flujo típico:
//
//	Login → CreateSignature / CreateTimestamp (→ verify* opcional) → Logout
//
// La firma criptográfica la realiza el servicio remoto; este paquete solo arma
// las peticiones y mantiene el estado de la sesión (ticket).
package sealsign

// DefaultProfile perfil de firma usado si Credentials.Profile está vacío.
const DefaultProfile = "Default"

// Nombres de las operaciones remotas (estables entre implementaciones).
const (
	OpLogin           = "login"
	OpSignDigest      = "signDigest"
	OpVerifyDigest    = "verifyDigest"
	OpTimestampDigest = "timestampDigest"
	OpVerifyTimestamp = "verifyTimestamp"
	OpLogout          = "logout"
)

// ResultOK código de resultado de éxito; cualquier otro valor es un fallo definido por el proveedor.
const ResultOK = 0

// Credentials datos de la cuenta en el servicio remoto.
type Credentials struct {
	AccountID string // Nombre único de la cuenta en el servidor
	Password  string // Secreto que protege el acceso a la cuenta
	ClientID  string
	PIN       string // Activa la llave de firma
	Profile   string // Especificación de firma (por defecto "Default")
}

// ── Peticiones ────────────────────────────────────────────────────────────────

// LoginRequest loginRequest.
type LoginRequest struct {
	AccountID string
	Secret    string
	ClientID  string
	Profile   string
}

// SignRequest signingRequest.
type SignRequest struct {
	Ticket string
	PIN    string
	Data   []byte // digest
}

// TimestampRequest timestampingRequest.
type TimestampRequest struct {
	Ticket string
	Data   []byte
}

// VerifyRequest verifyingRequest (verifyDigest y verifyTimestamp).
type VerifyRequest struct {
	Ticket    string
	Data      []byte
	Signature []byte // firma o token de sello de tiempo
}

// LogoutRequest logoutRequest.
type LogoutRequest struct {
	Ticket string
}

// ── Respuestas ────────────────────────────────────────────────────────────────

// LoginResult respuesta de login.
type LoginResult struct {
	Result int
	Ticket string
}

// SignResult respuesta de signDigest.
type SignResult struct {
	Result    int
	Signature []byte
}

// TimestampResult respuesta de timestampDigest.
type TimestampResult struct {
	Result         int
	TimestampToken []byte
}

// LogoutResult respuesta de logout.
type LogoutResult struct {
	Result int
}

// RemoteResult último resultado recibido del servicio.
type RemoteResult struct {
	Operation string
	Code      int
}

// OK indica si el resultado fue exitoso.
func (r RemoteResult) OK() bool { return r.Code == ResultOK }

// OCSPInfo información OCSP de revocación devuelta por verify*.
type OCSPInfo struct {
	Encoded           []byte // BasicOCSPResponse sin sobre
	EndCertificate    []byte
	IssuerCertificate []byte
}

// VerificationRecord datos de verificación devueltos por verifyDigest / verifyTimestamp.
// Todos los certificados y CRLs están en DER.
type VerificationRecord struct {
	Result int

	SignerCertificate []byte
	BasicOCSPResponse []byte
	Chain             [][]byte

	CRL  []byte
	OCSP *OCSPInfo

	TimestampSignerCertificate []byte
}
