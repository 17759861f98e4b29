package sealsign_test

import (
	"context"

	"github.com/jhoicas/sealsign-pades/pkg/sealsign"
)

// fakeRPC registra cada llamada y devuelve respuestas programadas.
type fakeRPC struct {
	loginRes     sealsign.LoginResult
	signRes      sealsign.SignResult
	tsRes        sealsign.TimestampResult
	verifyRec    sealsign.VerificationRecord
	verifyTsRec  sealsign.VerificationRecord
	logoutRes    sealsign.LogoutResult
	transportErr map[string]error

	calls         []string
	signReqs      []sealsign.SignRequest
	tsReqs        []sealsign.TimestampRequest
	verifyReqs    []sealsign.VerifyRequest
	verifyTsReqs  []sealsign.VerifyRequest
	loginReqs     []sealsign.LoginRequest
	logoutTickets []string
	logoutCtxErrs []error
}

func newFakeRPC() *fakeRPC {
	return &fakeRPC{
		loginRes:     sealsign.LoginResult{Result: 0, Ticket: "T1"},
		signRes:      sealsign.SignResult{Result: 0, Signature: []byte("firma-cms")},
		tsRes:        sealsign.TimestampResult{Result: 0, TimestampToken: []byte("token-tsp")},
		verifyRec:    sealsign.VerificationRecord{Result: 0, SignerCertificate: []byte("cert-firmante")},
		verifyTsRec:  sealsign.VerificationRecord{Result: 0, TimestampSignerCertificate: []byte("cert-tsa")},
		logoutRes:    sealsign.LogoutResult{Result: 0},
		transportErr: map[string]error{},
	}
}

func (f *fakeRPC) count(op string) int {
	n := 0
	for _, c := range f.calls {
		if c == op {
			n++
		}
	}
	return n
}

func (f *fakeRPC) Login(_ context.Context, req sealsign.LoginRequest) (*sealsign.LoginResult, error) {
	f.calls = append(f.calls, sealsign.OpLogin)
	f.loginReqs = append(f.loginReqs, req)
	if err := f.transportErr[sealsign.OpLogin]; err != nil {
		return nil, err
	}
	res := f.loginRes
	return &res, nil
}

func (f *fakeRPC) SignDigest(_ context.Context, req sealsign.SignRequest) (*sealsign.SignResult, error) {
	f.calls = append(f.calls, sealsign.OpSignDigest)
	f.signReqs = append(f.signReqs, req)
	if err := f.transportErr[sealsign.OpSignDigest]; err != nil {
		return nil, err
	}
	res := f.signRes
	return &res, nil
}

func (f *fakeRPC) VerifyDigest(_ context.Context, req sealsign.VerifyRequest) (*sealsign.VerificationRecord, error) {
	f.calls = append(f.calls, sealsign.OpVerifyDigest)
	f.verifyReqs = append(f.verifyReqs, req)
	if err := f.transportErr[sealsign.OpVerifyDigest]; err != nil {
		return nil, err
	}
	rec := f.verifyRec
	return &rec, nil
}

func (f *fakeRPC) TimestampDigest(_ context.Context, req sealsign.TimestampRequest) (*sealsign.TimestampResult, error) {
	f.calls = append(f.calls, sealsign.OpTimestampDigest)
	f.tsReqs = append(f.tsReqs, req)
	if err := f.transportErr[sealsign.OpTimestampDigest]; err != nil {
		return nil, err
	}
	res := f.tsRes
	return &res, nil
}

func (f *fakeRPC) VerifyTimestamp(_ context.Context, req sealsign.VerifyRequest) (*sealsign.VerificationRecord, error) {
	f.calls = append(f.calls, sealsign.OpVerifyTimestamp)
	f.verifyTsReqs = append(f.verifyTsReqs, req)
	if err := f.transportErr[sealsign.OpVerifyTimestamp]; err != nil {
		return nil, err
	}
	rec := f.verifyTsRec
	return &rec, nil
}

func (f *fakeRPC) Logout(ctx context.Context, req sealsign.LogoutRequest) (*sealsign.LogoutResult, error) {
	f.calls = append(f.calls, sealsign.OpLogout)
	f.logoutCtxErrs = append(f.logoutCtxErrs, ctx.Err())
	if ctx.Err() != nil {
		return nil, ctx.Err()
	}
	f.logoutTickets = append(f.logoutTickets, req.Ticket)
	if err := f.transportErr[sealsign.OpLogout]; err != nil {
		return nil, err
	}
	res := f.logoutRes
	return &res, nil
}

var _ sealsign.RPC = (*fakeRPC)(nil)
