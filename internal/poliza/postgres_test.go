package poliza

import (
	"context"
	"fmt"
	"testing"

	"github.com/pashagolub/pgxmock/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func init() {
	zap.ReplaceGlobals(zap.NewNop())
}

func newMockStore(t *testing.T) (*PostgresStore, pgxmock.PgxPoolIface) {
	t.Helper()
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	t.Cleanup(mock.Close)
	return NewPostgresStore(mock), mock
}

func TestLines_FixedSet(t *testing.T) {
	store, _ := newMockStore(t)
	got := store.Lines()
	assert.Equal(t, Lines, got)
	assert.Contains(t, got, "autos")
	assert.Contains(t, got, "vida")
	assert.Len(t, got, 9)
}

func TestListPolicyholders(t *testing.T) {
	store, mock := newMockStore(t)

	mock.ExpectQuery("FROM autos").
		WillReturnRows(pgxmock.NewRows([]string{"contratante", "email", "numero_poliza", "ramo"}).
			AddRow("María López", "m@x.com", "A-100", "Autos Residentes").
			AddRow("Juan Pérez", "", "A-101", ""))

	got, err := store.ListPolicyholders(context.Background(), "autos")
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, "María López", got[0].Contratante)
	assert.Equal(t, "Autos Residentes", got[0].Ramo)
	assert.Empty(t, got[1].Ramo, "COALESCE surfaces NULL ramo as empty")
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestListPolicyholders_UnknownLine(t *testing.T) {
	store, mock := newMockStore(t)

	_, err := store.ListPolicyholders(context.Background(), "directorio_contactos; DROP TABLE autos")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown line")
	assert.NoError(t, mock.ExpectationsWereMet(), "unknown lines never reach the pool")
}

func TestListPolicyholders_MissingTable(t *testing.T) {
	store, mock := newMockStore(t)

	mock.ExpectQuery("FROM mascotas").
		WillReturnError(fmt.Errorf(`relation "mascotas" does not exist`))

	_, err := store.ListPolicyholders(context.Background(), "mascotas")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "mascotas")
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestListPolicyholders_Empty(t *testing.T) {
	store, mock := newMockStore(t)

	mock.ExpectQuery("FROM vida").
		WillReturnRows(pgxmock.NewRows([]string{"contratante", "email", "numero_poliza", "ramo"}))

	got, err := store.ListPolicyholders(context.Background(), "vida")
	require.NoError(t, err)
	assert.Empty(t, got)
	assert.NoError(t, mock.ExpectationsWereMet())
}
