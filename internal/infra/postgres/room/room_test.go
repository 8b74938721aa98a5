package infra_postgres_room

import (
	"context"
	"errors"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/ozontech/allure-go/pkg/framework/provider"
	"github.com/ozontech/allure-go/pkg/framework/suite"
	"github.com/stretchr/testify/assert"

	"github.com/vibevortex/core/internal/model"
	usecase_room "github.com/vibevortex/core/internal/usecase/room"
)

type RoomInfraUnitSuite struct {
	suite.Suite
}

type resources struct {
	db     *sqlx.DB
	mock   sqlmock.Sqlmock
	driver *Driver
	ctx    context.Context
}

func initResources(t provider.T) *resources {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("failed to create sqlmock: %v", err)
	}

	sqlxDB := sqlx.NewDb(db, "sqlmock")
	driver := New(sqlxDB)

	return &resources{
		db:     sqlxDB,
		mock:   mock,
		driver: driver,
		ctx:    context.Background(),
	}
}

func validRoomCode() string {
	return "1234567"
}

func (suite *RoomInfraUnitSuite) TestCreate(t provider.T) {
	t.Parallel()

	testCases := []struct {
		name          string
		setupMocks    func(r *resources, code string)
		expectError   bool
		expectedError error
	}{
		{
			name: "Should insert active room",
			setupMocks: func(r *resources, code string) {
				r.mock.ExpectExec("INSERT INTO games").
					WithArgs(code, int64(42), []byte(`[42]`), true).
					WillReturnResult(sqlmock.NewResult(1, 1))
			},
			expectError: false,
		},
		{
			name: "Should map duplicate key to code conflict",
			setupMocks: func(r *resources, code string) {
				r.mock.ExpectExec("INSERT INTO games").
					WithArgs(code, int64(42), []byte(`[42]`), true).
					WillReturnError(errors.New(`duplicate key value violates unique constraint "idx_games_room_key_active"`))
			},
			expectError:   true,
			expectedError: usecase_room.ErrCodeConflict,
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t provider.T) {
			t.Parallel()
			r := initResources(t)
			code := validRoomCode()
			tc.setupMocks(r, code)

			err := r.driver.Create(r.ctx, model.Room{
				RoomCode: code,
				HostID:   42,
				Players:  []int64{42},
				Active:   true,
			})

			if tc.expectError {
				assert.ErrorIs(t, err, tc.expectedError)
			} else {
				assert.NoError(t, err)
			}
			assert.NoError(t, r.mock.ExpectationsWereMet())
		})
	}
}

func (suite *RoomInfraUnitSuite) TestIsActiveCode(t provider.T) {
	t.Parallel()

	r := initResources(t)
	code := validRoomCode()
	r.mock.ExpectQuery("SELECT EXISTS").
		WithArgs(code).
		WillReturnRows(sqlmock.NewRows([]string{"exists"}).AddRow(true))

	active, err := r.driver.IsActiveCode(r.ctx, code)

	assert.NoError(t, err)
	assert.True(t, active)
	assert.NoError(t, r.mock.ExpectationsWereMet())
}

func (suite *RoomInfraUnitSuite) TestHostID(t provider.T) {
	t.Parallel()

	testCases := []struct {
		name          string
		setupMocks    func(r *resources, code string)
		expected      int64
		expectError   bool
		expectedError error
	}{
		{
			name: "Should return host id",
			setupMocks: func(r *resources, code string) {
				r.mock.ExpectQuery("SELECT host_id FROM games").
					WithArgs(code).
					WillReturnRows(sqlmock.NewRows([]string{"host_id"}).AddRow(int64(42)))
			},
			expected: 42,
		},
		{
			name: "Should report missing room",
			setupMocks: func(r *resources, code string) {
				r.mock.ExpectQuery("SELECT host_id FROM games").
					WithArgs(code).
					WillReturnRows(sqlmock.NewRows([]string{"host_id"}))
			},
			expectError:   true,
			expectedError: usecase_room.ErrResourceNotFound,
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t provider.T) {
			t.Parallel()
			r := initResources(t)
			code := validRoomCode()
			tc.setupMocks(r, code)

			hostID, err := r.driver.HostID(r.ctx, code)

			if tc.expectError {
				assert.ErrorIs(t, err, tc.expectedError)
			} else {
				assert.NoError(t, err)
				assert.Equal(t, tc.expected, hostID)
			}
			assert.NoError(t, r.mock.ExpectationsWereMet())
		})
	}
}

func (suite *RoomInfraUnitSuite) TestPlayers(t provider.T) {
	t.Parallel()

	r := initResources(t)
	code := validRoomCode()
	r.mock.ExpectQuery("SELECT players FROM games").
		WithArgs(code).
		WillReturnRows(sqlmock.NewRows([]string{"players"}).AddRow([]byte(`[42, 7]`)))

	players, err := r.driver.Players(r.ctx, code)

	assert.NoError(t, err)
	assert.Equal(t, []int64{42, 7}, players)
	assert.NoError(t, r.mock.ExpectationsWereMet())
}

func (suite *RoomInfraUnitSuite) TestSetPlayers(t provider.T) {
	t.Parallel()

	testCases := []struct {
		name          string
		setupMocks    func(r *resources, code string)
		expectError   bool
		expectedError error
	}{
		{
			name: "Should update player list",
			setupMocks: func(r *resources, code string) {
				r.mock.ExpectExec("UPDATE games SET players").
					WithArgs([]byte(`[42,7]`), code).
					WillReturnResult(sqlmock.NewResult(0, 1))
			},
		},
		{
			name: "Should report missing room on zero rows",
			setupMocks: func(r *resources, code string) {
				r.mock.ExpectExec("UPDATE games SET players").
					WithArgs([]byte(`[42,7]`), code).
					WillReturnResult(sqlmock.NewResult(0, 0))
			},
			expectError:   true,
			expectedError: usecase_room.ErrResourceNotFound,
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t provider.T) {
			t.Parallel()
			r := initResources(t)
			code := validRoomCode()
			tc.setupMocks(r, code)

			err := r.driver.SetPlayers(r.ctx, code, []int64{42, 7})

			if tc.expectError {
				assert.ErrorIs(t, err, tc.expectedError)
			} else {
				assert.NoError(t, err)
			}
			assert.NoError(t, r.mock.ExpectationsWereMet())
		})
	}
}

func (suite *RoomInfraUnitSuite) TestDeactivate(t provider.T) {
	t.Parallel()

	r := initResources(t)
	code := validRoomCode()
	r.mock.ExpectExec("UPDATE games SET active").
		WithArgs(code).
		WillReturnResult(sqlmock.NewResult(0, 1))

	err := r.driver.Deactivate(r.ctx, code)

	assert.NoError(t, err)
	assert.NoError(t, r.mock.ExpectationsWereMet())
}

func (suite *RoomInfraUnitSuite) TestPreferences(t provider.T) {
	t.Parallel()

	r := initResources(t)
	code := validRoomCode()
	rows := sqlmock.NewRows([]string{"game_type", "playlists", "track_limit", "device_id", "preferences"}).
		AddRow("guess_the_track", []byte(`["37i9dQZF1DXcBWIGoYBM5M"]`), int64(20), "device-1", []byte(`{"difficulty":"hard"}`))
	r.mock.ExpectQuery("SELECT game_type, playlists, track_limit, device_id, preferences").
		WithArgs(code).
		WillReturnRows(rows)

	cfg, err := r.driver.Preferences(r.ctx, code)

	assert.NoError(t, err)
	assert.Equal(t, "guess_the_track", cfg.GameType)
	assert.Equal(t, []string{"37i9dQZF1DXcBWIGoYBM5M"}, cfg.Playlists)
	assert.Equal(t, 20, cfg.TrackLimit)
	assert.Equal(t, "device-1", cfg.DeviceID)
	assert.Equal(t, map[string]any{"difficulty": "hard"}, cfg.Preferences)
	assert.NoError(t, r.mock.ExpectationsWereMet())
}

func (suite *RoomInfraUnitSuite) TestActiveRoomFor(t provider.T) {
	t.Parallel()

	testCases := []struct {
		name       string
		setupMocks func(r *resources)
		expected   model.CurrentRoom
	}{
		{
			name: "Should report hosted room",
			setupMocks: func(r *resources) {
				rows := sqlmock.NewRows([]string{"room_key", "host_id", "started", "players", "active"}).
					AddRow("1234567", int64(42), true, []byte(`[42]`), true)
				r.mock.ExpectQuery("SELECT room_key, host_id, started, players, active").
					WithArgs(int64(42)).
					WillReturnRows(rows)
			},
			expected: model.CurrentRoom{InRoom: true, RoomCode: "1234567", IsHost: true, Started: true},
		},
		{
			name: "Should report no room without error",
			setupMocks: func(r *resources) {
				r.mock.ExpectQuery("SELECT room_key, host_id, started, players, active").
					WithArgs(int64(42)).
					WillReturnRows(sqlmock.NewRows([]string{"room_key"}))
			},
			expected: model.CurrentRoom{},
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t provider.T) {
			t.Parallel()
			r := initResources(t)
			tc.setupMocks(r)

			current, err := r.driver.ActiveRoomFor(r.ctx, 42)

			assert.NoError(t, err)
			assert.Equal(t, tc.expected, current)
			assert.NoError(t, r.mock.ExpectationsWereMet())
		})
	}
}

func TestRoomInfraUnitSuite(t *testing.T) {
	suite.RunSuite(t, new(RoomInfraUnitSuite))
}
