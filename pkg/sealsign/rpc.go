package sealsign

import "context"

// RPC es el puerto de salida hacia el servicio remoto.
// La implementación concreta usa SOAP (pkg/sealsign/soap); para tests se puede inyectar un fake.
//
// Los errores de red o de protocolo se devuelven como *TransportError. Un código de
// resultado distinto de 0 NO es un error a este nivel: lo interpreta Module.
type RPC interface {
	Login(ctx context.Context, req LoginRequest) (*LoginResult, error)
	SignDigest(ctx context.Context, req SignRequest) (*SignResult, error)
	VerifyDigest(ctx context.Context, req VerifyRequest) (*VerificationRecord, error)
	TimestampDigest(ctx context.Context, req TimestampRequest) (*TimestampResult, error)
	VerifyTimestamp(ctx context.Context, req VerifyRequest) (*VerificationRecord, error)
	Logout(ctx context.Context, req LogoutRequest) (*LogoutResult, error)
}
