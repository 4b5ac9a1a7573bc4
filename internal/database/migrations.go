package database

import (
	"context"
	"fmt"
)

// Index and constraint names the repositories map to domain conflicts.
const (
	IdxUsersUsername         = "idx_usuarios_username_lower"
	IdxCategoriesName        = "idx_categorias_nombre_lower"
	IdxPaymentMethodsName    = "idx_medios_pago_nombre_lower"
	IdxOptionsDisplayName    = "idx_opciones_nombre_lower"
	ConstraintOptionPair     = "opciones_categoria_medio_key"
	ConstraintOptionRankUniq = "opciones_orden_key"
)

// RunMigrations creates the database schema.
func RunMigrations(ctx context.Context, db PGXDB) error {
	migrations := []string{
		`CREATE TABLE IF NOT EXISTS usuarios (
			id SERIAL PRIMARY KEY,
			nombre TEXT NOT NULL,
			username TEXT NOT NULL,
			password_hash TEXT NOT NULL,
			rol TEXT NOT NULL CHECK (rol IN ('admin', 'coach')),
			activo BOOLEAN NOT NULL DEFAULT TRUE,
			created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
			updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
		)`,
		`CREATE UNIQUE INDEX IF NOT EXISTS ` + IdxUsersUsername + ` ON usuarios (LOWER(username))`,
		`CREATE TABLE IF NOT EXISTS categorias (
			id SERIAL PRIMARY KEY,
			nombre TEXT NOT NULL,
			sentido TEXT NOT NULL CHECK (sentido IN ('ingreso', 'egreso')),
			es_plan BOOLEAN NOT NULL DEFAULT FALSE,
			activo BOOLEAN NOT NULL DEFAULT TRUE,
			created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
			updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
		)`,
		`CREATE UNIQUE INDEX IF NOT EXISTS ` + IdxCategoriesName + ` ON categorias (LOWER(nombre))`,
		`CREATE TABLE IF NOT EXISTS medios_pago (
			id SERIAL PRIMARY KEY,
			nombre TEXT NOT NULL,
			activo BOOLEAN NOT NULL DEFAULT TRUE,
			orden INTEGER NOT NULL CHECK (orden >= 1),
			created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
			updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
		)`,
		`CREATE UNIQUE INDEX IF NOT EXISTS ` + IdxPaymentMethodsName + ` ON medios_pago (LOWER(nombre))`,
		`CREATE TABLE IF NOT EXISTS opciones (
			id SERIAL PRIMARY KEY,
			categoria_id INTEGER NOT NULL REFERENCES categorias(id),
			medio_pago_id INTEGER NOT NULL REFERENCES medios_pago(id),
			nombre_display TEXT NOT NULL,
			icono TEXT NOT NULL DEFAULT '',
			precio_sugerido DECIMAL(12, 2) CHECK (precio_sugerido IS NULL OR precio_sugerido >= 0),
			activo BOOLEAN NOT NULL DEFAULT TRUE,
			orden INTEGER NOT NULL CHECK (orden >= 1),
			precio_actualizado_at TIMESTAMPTZ,
			created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
			updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
			CONSTRAINT ` + ConstraintOptionPair + ` UNIQUE (categoria_id, medio_pago_id),
			CONSTRAINT ` + ConstraintOptionRankUniq + ` UNIQUE (orden) DEFERRABLE INITIALLY DEFERRED
		)`,
		`CREATE UNIQUE INDEX IF NOT EXISTS ` + IdxOptionsDisplayName + ` ON opciones (LOWER(nombre_display))`,
		`CREATE INDEX IF NOT EXISTS idx_opciones_categoria_id ON opciones(categoria_id)`,
		`CREATE INDEX IF NOT EXISTS idx_opciones_medio_pago_id ON opciones(medio_pago_id)`,
		`CREATE TABLE IF NOT EXISTS movimientos (
			id SERIAL PRIMARY KEY,
			fecha DATE NOT NULL,
			categoria_id INTEGER NOT NULL REFERENCES categorias(id),
			sentido TEXT NOT NULL CHECK (sentido IN ('ingreso', 'egreso')),
			monto DECIMAL(12, 2) NOT NULL CHECK (monto > 0),
			medio_pago_id INTEGER NOT NULL REFERENCES medios_pago(id),
			opcion_id INTEGER REFERENCES opciones(id),
			nombre_cliente TEXT,
			nota TEXT,
			usuario_id INTEGER NOT NULL REFERENCES usuarios(id),
			created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
			updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
		)`,
		`CREATE INDEX IF NOT EXISTS idx_movimientos_fecha ON movimientos(fecha)`,
		`CREATE INDEX IF NOT EXISTS idx_movimientos_categoria_id ON movimientos(categoria_id)`,
		`CREATE INDEX IF NOT EXISTS idx_movimientos_usuario_id ON movimientos(usuario_id)`,
		`CREATE INDEX IF NOT EXISTS idx_movimientos_opcion_id ON movimientos(opcion_id)`,
		`CREATE TABLE IF NOT EXISTS auditoria_movimientos (
			id SERIAL PRIMARY KEY,
			movimiento_id INTEGER NOT NULL REFERENCES movimientos(id),
			usuario_id INTEGER NOT NULL REFERENCES usuarios(id),
			campo TEXT NOT NULL,
			valor_anterior TEXT NOT NULL DEFAULT '',
			valor_nuevo TEXT NOT NULL DEFAULT '',
			created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
		)`,
		`CREATE INDEX IF NOT EXISTS idx_auditoria_movimiento_id ON auditoria_movimientos(movimiento_id)`,
		`CREATE INDEX IF NOT EXISTS idx_auditoria_usuario_id ON auditoria_movimientos(usuario_id)`,
		`CREATE INDEX IF NOT EXISTS idx_auditoria_created_at ON auditoria_movimientos(created_at)`,
	}

	for i, migration := range migrations {
		if _, err := db.Exec(ctx, migration); err != nil {
			return fmt.Errorf("migration %d failed: %w", i+1, err)
		}
	}

	return nil
}

// DefaultPaymentMethods are seeded on first start, in display order.
var DefaultPaymentMethods = []string{
	"Efectivo",
	"Transferencia",
	"Tarjeta",
}

// SeedPaymentMethods inserts the default payment methods, appending each at
// the end of the current order.
func SeedPaymentMethods(ctx context.Context, db PGXDB) error {
	for _, name := range DefaultPaymentMethods {
		_, err := db.Exec(ctx, `
			INSERT INTO medios_pago (nombre, orden)
			SELECT $1::text, COALESCE(MAX(orden), 0) + 1 FROM medios_pago
			ON CONFLICT (LOWER(nombre)) DO NOTHING
		`, name)
		if err != nil {
			return fmt.Errorf("failed to seed payment method %q: %w", name, err)
		}
	}

	return nil
}
