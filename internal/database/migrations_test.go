package database

import (
	"context"
	"testing"

	"github.com/jackc/pgx/v5"
	"github.com/stretchr/testify/require"
)

func TestRunMigrations(t *testing.T) {
	pool := TestPool(t)
	ctx := context.Background()

	tables := []string{
		"usuarios",
		"categorias",
		"medios_pago",
		"opciones",
		"movimientos",
		"auditoria_movimientos",
	}

	for _, table := range tables {
		t.Run(table, func(t *testing.T) {
			var exists bool
			err := pool.QueryRow(ctx, `
				SELECT EXISTS (
					SELECT FROM information_schema.tables
					WHERE table_name = $1
				)
			`, table).Scan(&exists)
			require.NoError(t, err)
			require.True(t, exists)
		})
	}

	t.Run("is idempotent", func(t *testing.T) {
		require.NoError(t, RunMigrations(ctx, pool))
	})
}

func TestSeedPaymentMethods(t *testing.T) {
	tx := TestTx(t)
	ctx := context.Background()

	require.NoError(t, SeedPaymentMethods(ctx, tx))

	rows, err := tx.Query(ctx, `SELECT nombre, orden FROM medios_pago ORDER BY orden`)
	require.NoError(t, err)
	type seeded struct {
		name string
		rank int
	}
	got, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (seeded, error) {
		var s seeded
		err := row.Scan(&s.name, &s.rank)
		return s, err
	})
	require.NoError(t, err)
	require.Equal(t, []seeded{{"Efectivo", 1}, {"Transferencia", 2}, {"Tarjeta", 3}}, got)

	require.NoError(t, SeedPaymentMethods(ctx, tx))

	var count int
	err = tx.QueryRow(ctx, "SELECT COUNT(*) FROM medios_pago").Scan(&count)
	require.NoError(t, err)
	require.Equal(t, 3, count, "should not duplicate payment methods on re-seed")
}

func TestSchemaConstraints(t *testing.T) {
	ctx := context.Background()

	t.Run("category names are unique case-insensitively", func(t *testing.T) {
		tx := TestTx(t)
		_, err := tx.Exec(ctx, `INSERT INTO categorias (nombre, sentido) VALUES ('Cuota', 'ingreso')`)
		require.NoError(t, err)

		_, err = tx.Exec(ctx, `INSERT INTO categorias (nombre, sentido) VALUES ('CUOTA', 'ingreso')`)
		name, ok := UniqueViolation(err)
		require.True(t, ok)
		require.Equal(t, IdxCategoriesName, name)
	})

	t.Run("rejects unknown direction", func(t *testing.T) {
		tx := TestTx(t)
		_, err := tx.Exec(ctx, `INSERT INTO categorias (nombre, sentido) VALUES ('X', 'otro')`)
		require.Error(t, err)
	})

	t.Run("option rank uniqueness is checked at commit", func(t *testing.T) {
		tx := TestTx(t)
		_, err := tx.Exec(ctx, `INSERT INTO categorias (id, nombre, sentido) VALUES (1, 'Cuota', 'ingreso')`)
		require.NoError(t, err)
		_, err = tx.Exec(ctx, `INSERT INTO medios_pago (id, nombre, orden) VALUES (1, 'Efectivo', 1), (2, 'Tarjeta', 2)`)
		require.NoError(t, err)
		_, err = tx.Exec(ctx, `
			INSERT INTO opciones (categoria_id, medio_pago_id, nombre_display, orden)
			VALUES (1, 1, 'Cuota efectivo', 1), (1, 2, 'Cuota tarjeta', 2)
		`)
		require.NoError(t, err)

		// Transient duplicate ranks inside a transaction are allowed.
		err = pgx.BeginFunc(ctx, tx, func(inner pgx.Tx) error {
			if _, err := inner.Exec(ctx, `UPDATE opciones SET orden = orden + 1 WHERE orden >= 1 AND orden < 2`); err != nil {
				return err
			}
			_, err := inner.Exec(ctx, `UPDATE opciones SET orden = 1 WHERE nombre_display = 'Cuota tarjeta'`)
			return err
		})
		require.NoError(t, err)

		var first string
		err = tx.QueryRow(ctx, `SELECT nombre_display FROM opciones WHERE orden = 1`).Scan(&first)
		require.NoError(t, err)
		require.Equal(t, "Cuota tarjeta", first)
	})

	t.Run("rejects non-positive amount", func(t *testing.T) {
		tx := TestTx(t)
		_, err := tx.Exec(ctx, `INSERT INTO categorias (id, nombre, sentido) VALUES (1, 'Cuota', 'ingreso')`)
		require.NoError(t, err)
		_, err = tx.Exec(ctx, `INSERT INTO medios_pago (id, nombre, orden) VALUES (1, 'Efectivo', 1)`)
		require.NoError(t, err)
		_, err = tx.Exec(ctx, `INSERT INTO usuarios (id, nombre, username, password_hash, rol) VALUES (1, 'A', 'a', 'x', 'admin')`)
		require.NoError(t, err)

		_, err = tx.Exec(ctx, `
			INSERT INTO movimientos (fecha, categoria_id, sentido, monto, medio_pago_id, usuario_id)
			VALUES ('2025-01-01', 1, 'ingreso', 0, 1, 1)
		`)
		require.Error(t, err)
	})
}
