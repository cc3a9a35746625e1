package app

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"encoding-service/ddd/application/cqe"
	"encoding-service/ddd/domain/entity"
	"encoding-service/ddd/domain/gateway"
	"encoding-service/ddd/domain/service"
	"encoding-service/ddd/domain/vo"
	"encoding-service/ddd/infrastructure/dedup"
)

// memoryRepo 内存仓储，行为与MySQL实现对齐：
// 属主键顶替、provider_job_id只写一次、未找到返回(nil, nil)。
type memoryRepo struct {
	mu   sync.Mutex
	jobs []*entity.EncodingJobEntity
}

func newMemoryRepo() *memoryRepo {
	return &memoryRepo{}
}

func (r *memoryRepo) SupersedeAndCreate(ctx context.Context, job *entity.EncodingJobEntity) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	kept := r.jobs[:0]
	for _, j := range r.jobs {
		if j.OwnerType() == job.OwnerType() && j.OwnerID() == job.OwnerID() && j.OwnerAttribute() == job.OwnerAttribute() {
			continue
		}
		kept = append(kept, j)
	}
	r.jobs = append(kept, job)
	return nil
}

func (r *memoryRepo) GetByJobUUID(ctx context.Context, jobUUID string) (*entity.EncodingJobEntity, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, j := range r.jobs {
		if j.JobUUID() == jobUUID {
			return j, nil
		}
	}
	return nil, nil
}

func (r *memoryRepo) GetByOwnerKey(ctx context.Context, ownerType, ownerID, ownerAttribute string) (*entity.EncodingJobEntity, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, j := range r.jobs {
		if j.OwnerType() == ownerType && j.OwnerID() == ownerID && j.OwnerAttribute() == ownerAttribute {
			return j, nil
		}
	}
	return nil, nil
}

func (r *memoryRepo) GetByProviderJobID(ctx context.Context, providerJobID string) (*entity.EncodingJobEntity, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, j := range r.jobs {
		if j.ProviderJobID() == providerJobID {
			return j, nil
		}
	}
	return nil, nil
}

func (r *memoryRepo) StoreProviderJob(ctx context.Context, jobUUID, providerJobID string, outputs *vo.Outputs) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, j := range r.jobs {
		if j.JobUUID() == jobUUID {
			j.AcceptProviderJob(providerJobID, outputs)
			return nil
		}
	}
	return errors.New("job not found")
}

func (r *memoryRepo) UpdateStatus(ctx context.Context, jobUUID string, status vo.EncodeStatus, message string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, j := range r.jobs {
		if j.JobUUID() == jobUUID {
			j.SetStatus(status, message)
			return nil
		}
	}
	return errors.New("job not found")
}

func (r *memoryRepo) UpdateStatusAndOutputs(ctx context.Context, jobUUID string, status vo.EncodeStatus, message string, outputs *vo.Outputs) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, j := range r.jobs {
		if j.JobUUID() == jobUUID {
			j.SetStatus(status, message)
			j.SetOutputs(outputs)
			return nil
		}
	}
	return errors.New("job not found")
}

func (r *memoryRepo) DeleteByOwner(ctx context.Context, ownerType, ownerID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	kept := r.jobs[:0]
	for _, j := range r.jobs {
		if j.OwnerType() == ownerType && j.OwnerID() == ownerID {
			continue
		}
		kept = append(kept, j)
	}
	r.jobs = kept
	return nil
}

func (r *memoryRepo) QueryPendingBefore(ctx context.Context, cutoffUnix int64, limit int) ([]*entity.EncodingJobEntity, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*entity.EncodingJobEntity
	for _, j := range r.jobs {
		if j.Status() == vo.EncodeStatusPending && j.CreatedAt().Unix() < cutoffUnix {
			out = append(out, j)
		}
	}
	return out, nil
}

func (r *memoryRepo) count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.jobs)
}

// stubProvider 测试用服务商：统一格式回调，提交行为可控
type stubProvider struct {
	mu            sync.Mutex
	submitErr     error
	nextJobID     string
	submitOutputs *vo.Outputs
	submitted     []string
}

func (p *stubProvider) Name() string { return "stub" }

func (p *stubProvider) Submit(ctx context.Context, sourceURL, jobUUID string) (*gateway.SubmitReceipt, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.submitted = append(p.submitted, sourceURL)
	if p.submitErr != nil {
		return nil, p.submitErr
	}
	return &gateway.SubmitReceipt{ProviderJobID: p.nextJobID, Outputs: p.submitOutputs}, nil
}

func (p *stubProvider) DecodeNotification(payload []byte) (*gateway.Notification, error) {
	var note struct {
		ProviderJobID string      `json:"provider_job_id"`
		JobUUID       string      `json:"job_uuid"`
		Status        string      `json:"status"`
		Message       string      `json:"message"`
		Outputs       *vo.Outputs `json:"outputs"`
	}
	if err := json.Unmarshal(payload, &note); err != nil {
		return nil, err
	}
	status, err := vo.NewEncodeStatusFromString(note.Status)
	if err != nil {
		return nil, err
	}
	n := &gateway.Notification{
		ProviderJobID: note.ProviderJobID,
		JobUUID:       note.JobUUID,
		Status:        status,
		Message:       note.Message,
	}
	if note.Outputs != nil && !note.Outputs.IsEmpty() {
		n.Outputs = note.Outputs
	}
	return n, nil
}

func (p *stubProvider) Ack() interface{} {
	return map[string]string{"status": "ok"}
}

// recorderPublisher 记录发布的状态变更，测试断言用
type recorderPublisher struct {
	mu     sync.Mutex
	events []string
}

func (r *recorderPublisher) PublishStatusChanged(ctx context.Context, job *entity.EncodingJobEntity, from, to, message string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, from+"->"+to)
}

func (r *recorderPublisher) count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.events)
}

// claimDeduper 内存版去重器，语义与Redis实现一致：
// 首次SeenBefore抢占返回false，Forget释放占位。
type claimDeduper struct {
	mu     sync.Mutex
	claims map[string]bool
}

func newClaimDeduper() *claimDeduper {
	return &claimDeduper{claims: map[string]bool{}}
}

func (d *claimDeduper) SeenBefore(ctx context.Context, providerName string, payload []byte) bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	key := providerName + ":" + string(payload)
	if d.claims[key] {
		return true
	}
	d.claims[key] = true
	return false
}

func (d *claimDeduper) Forget(ctx context.Context, providerName string, payload []byte) {
	d.mu.Lock()
	defer d.mu.Unlock()
	delete(d.claims, providerName+":"+string(payload))
}

// flakyRepo 让指定次数的状态更新失败，模拟回调应用时数据库抖动
type flakyRepo struct {
	*memoryRepo
	failUpdates int
}

func (r *flakyRepo) UpdateStatusAndOutputs(ctx context.Context, jobUUID string, status vo.EncodeStatus, message string, outputs *vo.Outputs) error {
	if r.failUpdates > 0 {
		r.failUpdates--
		return errors.New("db unavailable")
	}
	return r.memoryRepo.UpdateStatusAndOutputs(ctx, jobUUID, status, message, outputs)
}

type testOwner struct {
	ownerType string
	ownerID   string
	attrs     map[string]string
}

func (o *testOwner) Identify() (string, string) { return o.ownerType, o.ownerID }

func (o *testOwner) ReadAttribute(name string) (string, error) {
	v, ok := o.attrs[name]
	if !ok {
		return "", errors.New("attribute not found")
	}
	return v, nil
}

func newTestApp(repo *memoryRepo, prov *stubProvider, pub *recorderPublisher) EncodingApp {
	return NewEncodingAppWith(
		repo,
		prov,
		service.NewArtifactService(nil, 0),
		dedup.NewNotificationDeduper(nil),
		pub,
	)
}

func articleOwner() *testOwner {
	return &testOwner{
		ownerType: "article",
		ownerID:   "42",
		attrs:     map[string]string{"video": "/uploads/video.mov"},
	}
}

func TestCreateEncodingSubmitsAndStoresReceipt(t *testing.T) {
	repo := newMemoryRepo()
	prov := &stubProvider{nextJobID: "z-100"}
	pub := &recorderPublisher{}
	a := newTestApp(repo, prov, pub)

	job, err := a.CreateEncoding(context.Background(), articleOwner(), "video", "https://example.com")
	require.NoError(t, err)

	assert.Equal(t, vo.EncodeStatusQueued.String(), job.Status)
	assert.Equal(t, "z-100", job.ProviderJobID)
	assert.NotEmpty(t, job.JobUUID)
	assert.Equal(t, 1, repo.count())
	assert.Equal(t, 1, pub.count())

	require.Len(t, prov.submitted, 1)
	assert.Equal(t, "https://example.com/uploads/video.mov", prov.submitted[0])
}

func TestCreateEncodingSupersedesPreviousJob(t *testing.T) {
	repo := newMemoryRepo()
	prov := &stubProvider{nextJobID: "z-1"}
	a := newTestApp(repo, prov, &recorderPublisher{})

	owner := articleOwner()
	first, err := a.CreateEncoding(context.Background(), owner, "video", "https://example.com")
	require.NoError(t, err)

	prov.nextJobID = "z-2"
	second, err := a.CreateEncoding(context.Background(), owner, "video", "https://example.com")
	require.NoError(t, err)

	assert.Equal(t, 1, repo.count())
	assert.NotEqual(t, first.JobUUID, second.JobUUID)

	current, err := a.GetOwnerEncoding(context.Background(), "article", "42", "video")
	require.NoError(t, err)
	assert.Equal(t, second.JobUUID, current.JobUUID)
	assert.Equal(t, "z-2", current.ProviderJobID)
}

func TestCreateEncodingConcurrentSameOwnerKeepsOneRow(t *testing.T) {
	repo := newMemoryRepo()
	prov := &stubProvider{nextJobID: "z-1"}
	a := newTestApp(repo, prov, &recorderPublisher{})

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := a.CreateEncoding(context.Background(), articleOwner(), "video", "https://example.com")
			assert.NoError(t, err)
		}()
	}
	wg.Wait()

	assert.Equal(t, 1, repo.count())
}

func TestCreateEncodingUnreadableAttributeLeavesNoRow(t *testing.T) {
	repo := newMemoryRepo()
	a := newTestApp(repo, &stubProvider{nextJobID: "z-1"}, &recorderPublisher{})

	owner := &testOwner{ownerType: "article", ownerID: "42", attrs: map[string]string{}}
	_, err := a.CreateEncoding(context.Background(), owner, "video", "https://example.com")
	assert.Error(t, err)
	assert.Equal(t, 0, repo.count())
}

func TestCreateEncodingSubmitFailureLeavesPending(t *testing.T) {
	repo := newMemoryRepo()
	prov := &stubProvider{submitErr: errors.New("provider down")}
	pub := &recorderPublisher{}
	a := newTestApp(repo, prov, pub)

	_, err := a.CreateEncoding(context.Background(), articleOwner(), "video", "https://example.com")
	require.Error(t, err)

	// 记录已落库并停在pending，失败原因记在message里
	assert.Equal(t, 1, repo.count())
	job, err := a.GetOwnerEncoding(context.Background(), "article", "42", "video")
	require.NoError(t, err)
	assert.Equal(t, vo.EncodeStatusPending.String(), job.Status)
	assert.Empty(t, job.ProviderJobID)
	assert.Contains(t, job.Message, "provider down")
	assert.Equal(t, 0, pub.count())
}

func TestTransitionUpdatesStatus(t *testing.T) {
	repo := newMemoryRepo()
	a := newTestApp(repo, &stubProvider{nextJobID: "z-1"}, &recorderPublisher{})

	job, err := a.CreateEncoding(context.Background(), articleOwner(), "video", "https://example.com")
	require.NoError(t, err)

	err = a.Transition(context.Background(), &cqe.TransitionReq{
		JobUUID: job.JobUUID,
		Status:  "cancelled",
		Message: "cancelled by editor",
	})
	require.NoError(t, err)

	got, err := a.GetEncoding(context.Background(), job.JobUUID)
	require.NoError(t, err)
	assert.Equal(t, "cancelled", got.Status)
	assert.Equal(t, "cancelled by editor", got.Message)
}

func TestTransitionRejectsUnknownStatus(t *testing.T) {
	repo := newMemoryRepo()
	a := newTestApp(repo, &stubProvider{nextJobID: "z-1"}, &recorderPublisher{})

	job, err := a.CreateEncoding(context.Background(), articleOwner(), "video", "https://example.com")
	require.NoError(t, err)

	err = a.Transition(context.Background(), &cqe.TransitionReq{JobUUID: job.JobUUID, Status: "done"})
	assert.Error(t, err)

	got, err := a.GetEncoding(context.Background(), job.JobUUID)
	require.NoError(t, err)
	assert.Equal(t, vo.EncodeStatusQueued.String(), got.Status)
}

func TestTransitionUnknownJob(t *testing.T) {
	a := newTestApp(newMemoryRepo(), &stubProvider{}, &recorderPublisher{})
	err := a.Transition(context.Background(), &cqe.TransitionReq{JobUUID: "missing", Status: "error"})
	assert.Error(t, err)
}

func TestStoreProviderJobIsWriteOnce(t *testing.T) {
	repo := newMemoryRepo()
	a := newTestApp(repo, &stubProvider{nextJobID: "z-1"}, &recorderPublisher{})

	job, err := a.CreateEncoding(context.Background(), articleOwner(), "video", "https://example.com")
	require.NoError(t, err)
	assert.Equal(t, "z-1", job.ProviderJobID)

	err = a.StoreProviderJob(context.Background(), job.JobUUID, "z-other", nil)
	require.NoError(t, err)

	got, err := a.GetEncoding(context.Background(), job.JobUUID)
	require.NoError(t, err)
	assert.Equal(t, "z-1", got.ProviderJobID)
}

func TestHandleNotificationAppliesStatusAndOutputs(t *testing.T) {
	repo := newMemoryRepo()
	prov := &stubProvider{nextJobID: "z-1"}
	pub := &recorderPublisher{}
	a := newTestApp(repo, prov, pub)

	job, err := a.CreateEncoding(context.Background(), articleOwner(), "video", "https://example.com")
	require.NoError(t, err)

	payload := []byte(`{"provider_job_id":"z-1","status":"complete","outputs":{"webm":"u1","mp4":"u2"}}`)
	ack, err := a.HandleNotification(context.Background(), payload)
	require.NoError(t, err)
	assert.NotNil(t, ack)

	got, err := a.GetEncoding(context.Background(), job.JobUUID)
	require.NoError(t, err)
	assert.Equal(t, "complete", got.Status)
	require.NotNil(t, got.Outputs)

	entries := got.Outputs.Entries()
	require.Len(t, entries, 2)
	assert.Equal(t, "webm", entries[0].Label)
	assert.Equal(t, "mp4", entries[1].Label)
}

func TestHandleNotificationRedeliveryIsNoOp(t *testing.T) {
	repo := newMemoryRepo()
	prov := &stubProvider{nextJobID: "z-1"}
	pub := &recorderPublisher{}
	a := newTestApp(repo, prov, pub)

	_, err := a.CreateEncoding(context.Background(), articleOwner(), "video", "https://example.com")
	require.NoError(t, err)
	published := pub.count()

	payload := []byte(`{"provider_job_id":"z-1","status":"complete","outputs":{"mp4":"u"}}`)
	_, err = a.HandleNotification(context.Background(), payload)
	require.NoError(t, err)
	assert.Equal(t, published+1, pub.count())

	// 同一载荷重投：状态未变，不再发布事件
	_, err = a.HandleNotification(context.Background(), payload)
	require.NoError(t, err)
	assert.Equal(t, published+1, pub.count())
}

func TestHandleNotificationRedeliveryAfterFailedApplySucceeds(t *testing.T) {
	repo := &flakyRepo{memoryRepo: newMemoryRepo(), failUpdates: 1}
	prov := &stubProvider{nextJobID: "z-1"}
	pub := &recorderPublisher{}
	a := NewEncodingAppWith(repo, prov, service.NewArtifactService(nil, 0), newClaimDeduper(), pub)

	job, err := a.CreateEncoding(context.Background(), articleOwner(), "video", "https://example.com")
	require.NoError(t, err)

	// 首次投递抢占了去重位，但落库失败
	payload := []byte(`{"provider_job_id":"z-1","status":"complete","outputs":{"mp4":"u"}}`)
	_, err = a.HandleNotification(context.Background(), payload)
	require.Error(t, err)

	got, err := a.GetEncoding(context.Background(), job.JobUUID)
	require.NoError(t, err)
	assert.Equal(t, vo.EncodeStatusQueued.String(), got.Status)

	// 失败时释放了占位，服务商重投同一载荷必须能正常应用
	_, err = a.HandleNotification(context.Background(), payload)
	require.NoError(t, err)

	got, err = a.GetEncoding(context.Background(), job.JobUUID)
	require.NoError(t, err)
	assert.Equal(t, vo.EncodeStatusComplete.String(), got.Status)
	require.NotNil(t, got.Outputs)
}

func TestHandleNotificationResolvesByPassThroughUUID(t *testing.T) {
	repo := newMemoryRepo()
	prov := &stubProvider{submitErr: errors.New("provider down")}
	a := newTestApp(repo, prov, &recorderPublisher{})

	// 提交失败，作业停在pending且没有provider_job_id
	_, err := a.CreateEncoding(context.Background(), articleOwner(), "video", "https://example.com")
	require.Error(t, err)
	job, err := a.GetOwnerEncoding(context.Background(), "article", "42", "video")
	require.NoError(t, err)

	payload := []byte(`{"provider_job_id":"z-late","job_uuid":"` + job.JobUUID + `","status":"processing"}`)
	_, err = a.HandleNotification(context.Background(), payload)
	require.NoError(t, err)

	got, err := a.GetEncoding(context.Background(), job.JobUUID)
	require.NoError(t, err)
	assert.Equal(t, "processing", got.Status)
	// 回调先到，借机补记服务商作业ID
	assert.Equal(t, "z-late", got.ProviderJobID)
}

func TestHandleNotificationUndecodablePayloadIsNonFatal(t *testing.T) {
	a := newTestApp(newMemoryRepo(), &stubProvider{}, &recorderPublisher{})

	ack, err := a.HandleNotification(context.Background(), []byte(`not json at all`))
	require.NoError(t, err)
	assert.NotNil(t, ack)
}

func TestHandleNotificationUnknownJobIsNonFatal(t *testing.T) {
	a := newTestApp(newMemoryRepo(), &stubProvider{}, &recorderPublisher{})

	payload := []byte(`{"provider_job_id":"nobody","status":"complete"}`)
	ack, err := a.HandleNotification(context.Background(), payload)
	require.NoError(t, err)
	assert.NotNil(t, ack)
}

func TestRenderableSourcesThroughApp(t *testing.T) {
	repo := newMemoryRepo()
	prov := &stubProvider{nextJobID: "z-1"}
	a := newTestApp(repo, prov, &recorderPublisher{})

	job, err := a.CreateEncoding(context.Background(), articleOwner(), "video", "https://example.com")
	require.NoError(t, err)

	payload := []byte(`{"provider_job_id":"z-1","status":"complete","outputs":{"webm":"https://cdn/a.webm","mp4":"https://cdn/a.mp4"}}`)
	_, err = a.HandleNotification(context.Background(), payload)
	require.NoError(t, err)

	sources, err := a.RenderableSources(context.Background(), job.JobUUID)
	require.NoError(t, err)
	assert.Equal(t, "complete", sources.Status)
	require.Len(t, sources.Sources, 2)
	assert.Equal(t, "video/webm", sources.Sources[0].MimeType)
	assert.Equal(t, "video/mp4", sources.Sources[1].MimeType)
}

func TestDeleteForOwnerRemovesAllJobs(t *testing.T) {
	repo := newMemoryRepo()
	a := newTestApp(repo, &stubProvider{nextJobID: "z-1"}, &recorderPublisher{})

	owner := articleOwner()
	owner.attrs["trailer"] = "/uploads/trailer.mov"

	_, err := a.CreateEncoding(context.Background(), owner, "video", "https://example.com")
	require.NoError(t, err)
	_, err = a.CreateEncoding(context.Background(), owner, "trailer", "https://example.com")
	require.NoError(t, err)
	assert.Equal(t, 2, repo.count())

	err = a.DeleteForOwner(context.Background(), "article", "42")
	require.NoError(t, err)
	assert.Equal(t, 0, repo.count())

	_, err = a.GetEncoding(context.Background(), "whatever")
	assert.Error(t, err)
}
