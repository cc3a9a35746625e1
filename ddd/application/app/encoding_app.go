package app

import (
	"context"
	"sync"

	"encoding-service/ddd/application/cqe"
	"encoding-service/ddd/application/dto"
	"encoding-service/ddd/domain/entity"
	"encoding-service/ddd/domain/gateway"
	"encoding-service/ddd/domain/port"
	"encoding-service/ddd/domain/repo"
	"encoding-service/ddd/domain/service"
	"encoding-service/ddd/domain/vo"
	"encoding-service/ddd/infrastructure/database/persistence"
	"encoding-service/ddd/infrastructure/dedup"
	"encoding-service/ddd/infrastructure/events"
	"encoding-service/ddd/infrastructure/provider"
	"encoding-service/ddd/infrastructure/storage"
	"encoding-service/internal/resource"
	"encoding-service/pkg/assert"
	"encoding-service/pkg/config"
	"encoding-service/pkg/errno"
	"encoding-service/pkg/kafka"
	"encoding-service/pkg/logger"
)

var (
	singleEncodingApp EncodingApp
	onceEncodingApp   sync.Once
)

// EncodingApp 编码作业生命周期应用服务
type EncodingApp interface {
	// CreateEncoding 为属主字段创建编码作业：先落库占位再提交服务商，
	// 同一属主键的旧作业在同一事务里被顶替删除。
	CreateEncoding(ctx context.Context, owner port.Owner, attribute, origin string) (*dto.EncodingJobDto, error)
	// GetEncoding 按作业UUID查询
	GetEncoding(ctx context.Context, jobUUID string) (*dto.EncodingJobDto, error)
	// GetOwnerEncoding 按属主键查询当前作业
	GetOwnerEncoding(ctx context.Context, ownerType, ownerID, ownerAttribute string) (*dto.EncodingJobDto, error)
	// Transition 手工状态流转（含对终止状态的人工纠正）
	Transition(ctx context.Context, req *cqe.TransitionReq) error
	// StoreProviderJob 受理回执落库：status=queued、作业ID（仅首次）、初始输出
	StoreProviderJob(ctx context.Context, jobUUID, providerJobID string, outputs *vo.Outputs) error
	// HandleNotification 处理服务商回调。除载荷读取失败外一律返回服务商
	// 期望的应答，避免服务商对无法修复的载荷无限重投。
	HandleNotification(ctx context.Context, payload []byte) (interface{}, error)
	// RenderableSources 把作业输出投影为可渲染视频源列表
	RenderableSources(ctx context.Context, jobUUID string) (*dto.RenderableSourcesDto, error)
	// DeleteForOwner 属主删除时级联清理其全部作业
	DeleteForOwner(ctx context.Context, ownerType, ownerID string) error
}

// NotificationDeduper 回调去重快路径。
// SeenBefore抢占成功后若应用失败，必须Forget释放占位，重投才能再次进入处理。
type NotificationDeduper interface {
	SeenBefore(ctx context.Context, providerName string, payload []byte) bool
	Forget(ctx context.Context, providerName string, payload []byte)
}

type encodingAppImpl struct {
	encodingRepo   repo.EncodingJobRepository
	provider       gateway.EncodingProvider
	sourceResolver *service.SourceResolver
	artifacts      *service.ArtifactService
	deduper        NotificationDeduper
	publisher      events.Publisher
}

func DefaultEncodingApp() EncodingApp {
	assert.NotCircular()
	onceEncodingApp.Do(func() {
		cfg := config.GetGlobalConfig()
		prov, err := provider.ForConfig(cfg)
		if err != nil {
			logger.Fatal("Failed to create encoding provider: " + err.Error())
		}
		store := storage.NewMinioStorage(resource.DefaultMinioResource(), cfg)

		// Kafka关闭时发布器退化为空操作
		var kafkaClient *kafka.Client
		if cfg.Kafka.Enabled {
			kafkaClient = kafka.DefaultClient()
		}

		singleEncodingApp = NewEncodingAppWith(
			persistence.NewEncodingRepository(),
			prov,
			service.NewArtifactService(store, cfg.Encode.SignedURLExpiry),
			dedup.NewNotificationDeduper(resource.DefaultRedisResource().Wrapped()),
			events.NewKafkaPublisher(kafkaClient, cfg),
		)
	})
	assert.NotNil(singleEncodingApp)
	return singleEncodingApp
}

func NewEncodingAppWith(
	encodingRepo repo.EncodingJobRepository,
	prov gateway.EncodingProvider,
	artifacts *service.ArtifactService,
	deduper NotificationDeduper,
	publisher events.Publisher,
) EncodingApp {
	return &encodingAppImpl{
		encodingRepo:   encodingRepo,
		provider:       prov,
		sourceResolver: service.NewSourceResolver(),
		artifacts:      artifacts,
		deduper:        deduper,
		publisher:      publisher,
	}
}

func (a *encodingAppImpl) CreateEncoding(ctx context.Context, owner port.Owner, attribute, origin string) (*dto.EncodingJobDto, error) {
	ownerType, ownerID := owner.Identify()
	if ownerType == "" {
		return nil, errno.ErrOwnerTypeRequired
	}
	if ownerID == "" {
		return nil, errno.ErrOwnerIDRequired
	}
	if attribute == "" {
		return nil, errno.ErrOwnerAttrRequired
	}

	// 源解析放在落库之前：读不到源字段的请求不应留下作业记录
	sourceURL, err := a.sourceResolver.Source(owner, attribute, origin)
	if err != nil {
		return nil, err
	}

	// 先落库占位，保证回调到达时记录一定存在
	job := entity.NewEncodingJobEntity(ownerType, ownerID, attribute)
	if err := a.encodingRepo.SupersedeAndCreate(ctx, job); err != nil {
		return nil, errno.NewBizError(errno.ErrDatabase, err)
	}

	receipt, err := a.provider.Submit(ctx, sourceURL, job.JobUUID())
	if err != nil {
		// 提交失败作业留在pending，由巡检兜底；失败原因尽力记到message
		logger.Errorf("Encoding submission failed job_uuid=%s provider=%s error=%v",
			job.JobUUID(), a.provider.Name(), err)
		if dbErr := a.encodingRepo.UpdateStatus(ctx, job.JobUUID(), vo.EncodeStatusPending, err.Error()); dbErr != nil {
			logger.Errorf("Record submission failure failed job_uuid=%s error=%v", job.JobUUID(), dbErr)
		}
		if errno.Decode(err) == errno.ErrUnknown {
			err = errno.NewBizError(errno.ErrSubmissionFailed, err)
		}
		return nil, err
	}

	job.AcceptProviderJob(receipt.ProviderJobID, receipt.Outputs)
	if err := a.encodingRepo.StoreProviderJob(ctx, job.JobUUID(), receipt.ProviderJobID, receipt.Outputs); err != nil {
		return nil, errno.NewBizError(errno.ErrDatabase, err)
	}

	a.publisher.PublishStatusChanged(ctx, job,
		vo.EncodeStatusPending.String(), vo.EncodeStatusQueued.String(), "")
	return dto.NewEncodingJobDto(job), nil
}

func (a *encodingAppImpl) GetEncoding(ctx context.Context, jobUUID string) (*dto.EncodingJobDto, error) {
	job, err := a.mustGetJob(ctx, jobUUID)
	if err != nil {
		return nil, err
	}
	return dto.NewEncodingJobDto(job), nil
}

func (a *encodingAppImpl) GetOwnerEncoding(ctx context.Context, ownerType, ownerID, ownerAttribute string) (*dto.EncodingJobDto, error) {
	job, err := a.encodingRepo.GetByOwnerKey(ctx, ownerType, ownerID, ownerAttribute)
	if err != nil {
		return nil, errno.NewBizError(errno.ErrDatabase, err)
	}
	if job == nil {
		return nil, errno.ErrEncodingJobNotFound
	}
	return dto.NewEncodingJobDto(job), nil
}

func (a *encodingAppImpl) Transition(ctx context.Context, req *cqe.TransitionReq) error {
	if err := req.Validate(); err != nil {
		return err
	}
	target, err := vo.NewEncodeStatusFromString(req.Status)
	if err != nil {
		return err
	}

	job, err := a.mustGetJob(ctx, req.JobUUID)
	if err != nil {
		return err
	}

	from := job.Status()
	if err := a.encodingRepo.UpdateStatus(ctx, req.JobUUID, target, req.Message); err != nil {
		return errno.NewBizError(errno.ErrDatabase, err)
	}

	job.SetStatus(target, req.Message)
	a.publisher.PublishStatusChanged(ctx, job, from.String(), target.String(), req.Message)
	return nil
}

func (a *encodingAppImpl) StoreProviderJob(ctx context.Context, jobUUID, providerJobID string, outputs *vo.Outputs) error {
	job, err := a.mustGetJob(ctx, jobUUID)
	if err != nil {
		return err
	}

	from := job.Status()
	if err := a.encodingRepo.StoreProviderJob(ctx, jobUUID, providerJobID, outputs); err != nil {
		return errno.NewBizError(errno.ErrDatabase, err)
	}

	job.AcceptProviderJob(providerJobID, outputs)
	a.publisher.PublishStatusChanged(ctx, job, from.String(), vo.EncodeStatusQueued.String(), "")
	return nil
}

func (a *encodingAppImpl) HandleNotification(ctx context.Context, payload []byte) (interface{}, error) {
	ack := a.provider.Ack()

	// 快路径去重：同一载荷重投直接应答
	if a.deduper.SeenBefore(ctx, a.provider.Name(), payload) {
		logger.Infof("Duplicate notification skipped provider=%s", a.provider.Name())
		return ack, nil
	}

	note, err := a.provider.DecodeNotification(payload)
	if err != nil {
		// 无法识别的载荷不会因重投而变得可识别，应答后只留日志
		logger.Warnf("Undecodable notification dropped provider=%s error=%v", a.provider.Name(), err)
		return ack, nil
	}

	job, err := a.resolveNotifiedJob(ctx, note)
	if err != nil {
		// 应用失败要释放去重占位，否则重投会被占位挡下、更新永久丢失
		a.deduper.Forget(ctx, a.provider.Name(), payload)
		return nil, err
	}
	if job == nil {
		logger.Warnf("Notification for unknown job dropped provider_job_id=%s job_uuid=%s",
			note.ProviderJobID, note.JobUUID)
		return ack, nil
	}

	// 兜底幂等：与存储状态完全一致的回调是重投，不再写库
	if a.alreadyApplied(job, note) {
		return ack, nil
	}

	from := job.Status()

	// 回调先于受理回执落库到达时，借机补记服务商作业ID
	if job.ProviderJobID() == "" && note.ProviderJobID != "" {
		if err := a.encodingRepo.StoreProviderJob(ctx, job.JobUUID(), note.ProviderJobID, nil); err != nil {
			a.deduper.Forget(ctx, a.provider.Name(), payload)
			return nil, errno.NewBizError(errno.ErrDatabase, err)
		}
	}

	if note.Outputs != nil {
		err = a.encodingRepo.UpdateStatusAndOutputs(ctx, job.JobUUID(), note.Status, note.Message, note.Outputs)
	} else {
		err = a.encodingRepo.UpdateStatus(ctx, job.JobUUID(), note.Status, note.Message)
	}
	if err != nil {
		a.deduper.Forget(ctx, a.provider.Name(), payload)
		return nil, errno.NewBizError(errno.ErrDatabase, err)
	}

	job.SetStatus(note.Status, note.Message)
	if note.Outputs != nil {
		job.SetOutputs(note.Outputs)
	}
	a.publisher.PublishStatusChanged(ctx, job, from.String(), note.Status.String(), note.Message)

	logger.Infof("Notification applied job_uuid=%s from=%s to=%s", job.JobUUID(), from, note.Status)
	return ack, nil
}

func (a *encodingAppImpl) RenderableSources(ctx context.Context, jobUUID string) (*dto.RenderableSourcesDto, error) {
	job, err := a.mustGetJob(ctx, jobUUID)
	if err != nil {
		return nil, err
	}
	sources := a.artifacts.RenderableSources(ctx, job)
	return dto.NewRenderableSourcesDto(job, sources), nil
}

func (a *encodingAppImpl) DeleteForOwner(ctx context.Context, ownerType, ownerID string) error {
	if ownerType == "" {
		return errno.ErrOwnerTypeRequired
	}
	if ownerID == "" {
		return errno.ErrOwnerIDRequired
	}
	if err := a.encodingRepo.DeleteByOwner(ctx, ownerType, ownerID); err != nil {
		return errno.NewBizError(errno.ErrDatabase, err)
	}
	return nil
}

func (a *encodingAppImpl) mustGetJob(ctx context.Context, jobUUID string) (*entity.EncodingJobEntity, error) {
	if jobUUID == "" {
		return nil, errno.ErrJobUUIDRequired
	}
	job, err := a.encodingRepo.GetByJobUUID(ctx, jobUUID)
	if err != nil {
		return nil, errno.NewBizError(errno.ErrDatabase, err)
	}
	if job == nil {
		return nil, errno.ErrEncodingJobNotFound
	}
	return job, nil
}

// resolveNotifiedJob 先按服务商作业ID找，找不到再按透传的作业UUID找
func (a *encodingAppImpl) resolveNotifiedJob(ctx context.Context, note *gateway.Notification) (*entity.EncodingJobEntity, error) {
	if note.ProviderJobID != "" {
		job, err := a.encodingRepo.GetByProviderJobID(ctx, note.ProviderJobID)
		if err != nil {
			return nil, errno.NewBizError(errno.ErrDatabase, err)
		}
		if job != nil {
			return job, nil
		}
	}
	if note.JobUUID != "" {
		job, err := a.encodingRepo.GetByJobUUID(ctx, note.JobUUID)
		if err != nil {
			return nil, errno.NewBizError(errno.ErrDatabase, err)
		}
		return job, nil
	}
	return nil, nil
}

func (a *encodingAppImpl) alreadyApplied(job *entity.EncodingJobEntity, note *gateway.Notification) bool {
	if job.Status() != note.Status || job.Message() != note.Message {
		return false
	}
	if note.Outputs == nil {
		return true
	}
	return job.Outputs().Equal(note.Outputs)
}
