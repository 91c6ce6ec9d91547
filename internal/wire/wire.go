package wire

import (
	"Glimpse/internal/api"
	"Glimpse/internal/api/config"
	"Glimpse/internal/api/handler"
	"Glimpse/internal/job"
	"Glimpse/internal/pkg/cron"
	"Glimpse/internal/pkg/kafka"
	"Glimpse/internal/pkg/mongo"
	"Glimpse/internal/pkg/storage"
	"Glimpse/internal/repository"
	"Glimpse/internal/service"

	"github.com/gin-gonic/gin"
	mongodrv "go.mongodb.org/mongo-driver/mongo"
	"gorm.io/gorm"
)

// ApplicationContainer 封装了应用运行所需的所有顶级组件
type ApplicationContainer struct {
	Router       *gin.Engine
	DB           *gorm.DB
	CronMgr      *cron.Manager
	KafkaManager *kafka.ConsumerManager // 未启用时为 nil
}

func BuildApplication(db *gorm.DB, mongoDB *mongodrv.Database, store storage.ObjectStore, cfg *config.Config) (*ApplicationContainer, error) {
	userRepo := repository.NewUserRepo(db)
	statusRepo := mongo.NewStatusRepo(mongoDB)

	userDirectory := service.NewUserDirectory(userRepo, store)
	statusService := service.NewStatusService(statusRepo, store, userDirectory, cfg.Status)

	handlers := &api.HandlersGroup{
		StatusHandler: handler.NewStatusHandler(statusService, cfg.Status.MaxMediaSize),
	}

	router := api.SetupRouter(handlers)

	sweepJob := job.NewStatusSweepJob(statusRepo, store, cfg.Status.SweepBatch)
	cronMgr := cron.NewCronManager(sweepJob, cfg.Status.SweepCron)

	var kafkaMgr *kafka.ConsumerManager
	if cfg.KafkaUserDetailConsumer.Enable {
		var err error
		kafkaMgr, err = kafka.NewConsumerManager(cfg, userDirectory)
		if err != nil {
			return nil, err
		}
	}

	return &ApplicationContainer{
		Router:       router,
		DB:           db,
		CronMgr:      cronMgr,
		KafkaManager: kafkaMgr,
	}, nil
}
