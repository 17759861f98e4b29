package sealsign

import "context"

// WithSession inicia sesión, ejecuta fn y siempre intenta cerrar la sesión, también
// si fn falla. Un fallo del logout final solo se registra: nunca reemplaza el
// error de fn.
func WithSession(ctx context.Context, m *Module, fn func(ctx context.Context, m *Module) error) error {
	if err := m.Login(ctx); err != nil {
		return err
	}
	defer func() {
		// El logout sale aunque ctx ya esté cancelado (p. ej. SIGINT durante fn).
		logoutCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), closeTimeout)
		defer cancel()
		if _, err := m.Logout(logoutCtx); err != nil {
			m.log.Warn().Err(err).Msg("logout al finalizar la sesión falló")
		}
	}()

	return fn(ctx, m)
}
