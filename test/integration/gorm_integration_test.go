package integration

import (
	"context"
	"log"
	"os"
	"testing"
	"time"

	"mesh-explorer-be/internal/entity"
	"mesh-explorer-be/internal/repository/unitofwork"
	"mesh-explorer-be/pkg/database"

	"github.com/google/uuid"
	"github.com/joho/godotenv"
	"github.com/stretchr/testify/assert"
)

func TestGormConnection(t *testing.T) {
	// Load .env from root
	err := godotenv.Load("../../.env")
	if err != nil {
		log.Println("No .env file found, using system env")
	}

	dsn := os.Getenv("DB_CONNECTION_STRING")
	if dsn == "" {
		t.Skip("Skipping integration test: DB_CONNECTION_STRING not set")
	}

	gormDB, err := database.NewGormDBFromDSN(dsn)
	if err != nil {
		t.Fatalf("Failed to connect to DB: %v", err)
	}

	// Verify Wiring
	uowFactory := unitofwork.NewRepositoryFactory(gormDB)
	uow := uowFactory.NewUnitOfWork(context.Background())

	assert.NotNil(t, uow.UserRepository())
	assert.NotNil(t, uow.MeshSessionRepository())
	assert.NotNil(t, uow.SegmentRepository())

	// Basic Ping
	sqlDB, _ := gormDB.DB()
	err = sqlDB.Ping()
	assert.NoError(t, err)
	t.Log("Successfully connected to DB and initialized UnitOfWork Factory")

	t.Run("Check Transactional Segment Replacement", func(t *testing.T) {
		ctx := context.Background()

		user := &entity.User{
			Id:         uuid.New(),
			SecretHash: "integration-test-hash",
		}
		err := uow.UserRepository().Create(ctx, user)
		assert.NoError(t, err)

		session := &entity.MeshSession{
			Id:     uuid.New(),
			UserId: user.Id,
			Name:   "integration-session-" + uuid.New().String(),
		}
		err = uow.MeshSessionRepository().Create(ctx, session)
		assert.NoError(t, err)

		err = uow.Begin(ctx)
		assert.NoError(t, err)
		defer uow.Rollback()

		records := []*entity.SegmentRecord{
			{
				Id:           uuid.New(),
				SessionId:    session.Id,
				SegmentIndex: 0,
				Type:         "straight",
				Length:       4.2,
				NodeIDs:      []int{0, 1, 2},
				Embedding:    make([]float32, 64),
			},
			{
				Id:           uuid.New(),
				SessionId:    session.Id,
				SegmentIndex: 1,
				Type:         "arc",
				Length:       2.1,
				NodeIDs:      []int{3, 4},
				Embedding:    make([]float32, 64),
			},
		}
		err = uow.SegmentRepository().CreateBatch(ctx, records)
		assert.NoError(t, err)

		now := time.Now()
		session.SegmentedAt = &now
		err = uow.MeshSessionRepository().Update(ctx, session)
		assert.NoError(t, err)

		err = uow.Commit()
		assert.NoError(t, err)

		t.Log("Successfully stored segmentation in Transaction")
	})

	t.Run("Check Segment Vector Search", func(t *testing.T) {
		ctx := context.Background()

		probe := make([]float32, 64)
		probe[0] = 1

		// A random session id yields no neighbors but proves the
		// pgvector operator and column exist.
		_, err := uow.SegmentRepository().NearestByEmbedding(ctx, uuid.New(), probe, 4)
		assert.NoError(t, err)
	})
}
