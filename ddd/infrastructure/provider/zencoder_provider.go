package provider

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"

	"encoding-service/ddd/domain/gateway"
	"encoding-service/ddd/domain/vo"
	"encoding-service/pkg/config"
	"encoding-service/pkg/errno"
	"encoding-service/pkg/logger"
)

// ZencoderProvider Zencoder编码服务商网关实现
type ZencoderProvider struct {
	apiKey     string
	baseURL    string
	notifyURL  string
	outputBase string
	formats    []config.OutputFormat
	httpClient *http.Client
}

// NewZencoderProvider 根据配置创建Zencoder网关
func NewZencoderProvider(cfg *config.Config) *ZencoderProvider {
	return &ZencoderProvider{
		apiKey:     cfg.Encode.Zencoder.APIKey,
		baseURL:    strings.TrimRight(cfg.Encode.Zencoder.BaseURL, "/"),
		notifyURL:  cfg.Encode.NotifyURL,
		outputBase: strings.TrimRight(cfg.Encode.Zencoder.OutputBase, "/"),
		formats:    cfg.Encode.OutputFormats,
		httpClient: &http.Client{Timeout: cfg.Encode.Zencoder.Timeout},
	}
}

// Name 服务商标识
func (p *ZencoderProvider) Name() string { return "zencoder" }

// zencoderJobRequest 提交作业的请求体
type zencoderJobRequest struct {
	Input         string                 `json:"input"`
	PassThrough   string                 `json:"pass_through"`
	Notifications []zencoderNotifyTarget `json:"notifications,omitempty"`
	Outputs       []zencoderOutputSpec   `json:"outputs"`
}

type zencoderNotifyTarget struct {
	URL string `json:"url"`
}

type zencoderOutputSpec struct {
	Label      string `json:"label"`
	Format     string `json:"format,omitempty"`
	VideoCodec string `json:"video_codec,omitempty"`
	Size       string `json:"size,omitempty"`
	Bitrate    string `json:"video_bitrate,omitempty"`
	URL        string `json:"url,omitempty"`
}

// zencoderJobResponse 提交受理回执
type zencoderJobResponse struct {
	ID      int64 `json:"id"`
	Outputs []struct {
		ID    int64  `json:"id"`
		Label string `json:"label"`
		URL   string `json:"url"`
	} `json:"outputs"`
}

// Submit 向Zencoder发起异步编码，本调用不做重试
func (p *ZencoderProvider) Submit(ctx context.Context, sourceURL, jobUUID string) (*gateway.SubmitReceipt, error) {
	if p.apiKey == "" {
		return nil, errno.ErrProviderNotConfigure
	}

	req := zencoderJobRequest{
		Input:       sourceURL,
		PassThrough: jobUUID,
	}
	if p.notifyURL != "" {
		req.Notifications = []zencoderNotifyTarget{{URL: p.notifyURL}}
	}
	for _, f := range p.formats {
		spec := zencoderOutputSpec{
			Label:      f.Label,
			Format:     f.Label,
			VideoCodec: f.Codec,
			Size:       f.Resolution,
			Bitrate:    f.Bitrate,
		}
		if p.outputBase != "" {
			spec.URL = fmt.Sprintf("%s/%s/%s.%s", p.outputBase, jobUUID, f.Label, f.Label)
		}
		req.Outputs = append(req.Outputs, spec)
	}

	body, err := json.Marshal(req)
	if err != nil {
		return nil, errno.NewBizError(errno.ErrSubmissionFailed, err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, p.baseURL+"/jobs", bytes.NewReader(body))
	if err != nil {
		return nil, errno.NewBizError(errno.ErrSubmissionFailed, err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Zencoder-Api-Key", p.apiKey)

	resp, err := p.httpClient.Do(httpReq)
	if err != nil {
		return nil, errno.NewBizError(errno.ErrSubmissionFailed, err)
	}
	defer resp.Body.Close()

	respBody, _ := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if resp.StatusCode != http.StatusCreated && resp.StatusCode != http.StatusOK {
		logger.Errorf("Zencoder rejected submission job_uuid=%s status=%d body=%s", jobUUID, resp.StatusCode, string(respBody))
		return nil, errno.NewBizError(errno.ErrSubmissionFailed,
			fmt.Errorf("zencoder returned status %d", resp.StatusCode))
	}

	var jobResp zencoderJobResponse
	if err := json.Unmarshal(respBody, &jobResp); err != nil {
		return nil, errno.NewBizError(errno.ErrSubmissionFailed, err)
	}
	if jobResp.ID == 0 {
		return nil, errno.NewBizError(errno.ErrSubmissionFailed, fmt.Errorf("zencoder response missing job id"))
	}

	receipt := &gateway.SubmitReceipt{
		ProviderJobID: strconv.FormatInt(jobResp.ID, 10),
		Outputs:       vo.NewOutputs(),
	}
	for _, out := range jobResp.Outputs {
		if out.Label != "" && out.URL != "" {
			receipt.Outputs.Set(out.Label, out.URL)
		}
	}
	return receipt, nil
}

// zencoderNotification 回调载荷
type zencoderNotification struct {
	Job *struct {
		ID          int64  `json:"id"`
		State       string `json:"state"`
		PassThrough string `json:"pass_through"`
		ErrorClass  string `json:"error_class"`
		ErrorMsg    string `json:"error_message"`
	} `json:"job"`
	Outputs []struct {
		Label string `json:"label"`
		URL   string `json:"url"`
		State string `json:"state"`
	} `json:"outputs"`
	Output *struct {
		Label string `json:"label"`
		URL   string `json:"url"`
		State string `json:"state"`
	} `json:"output"`
}

// DecodeNotification 把Zencoder回调映射为统一通知
func (p *ZencoderProvider) DecodeNotification(payload []byte) (*gateway.Notification, error) {
	var note zencoderNotification
	if err := json.Unmarshal(payload, &note); err != nil {
		return nil, errno.NewBizError(errno.ErrNotificationInvalid, err)
	}
	if note.Job == nil || note.Job.ID == 0 {
		return nil, errno.ErrNotificationInvalid
	}

	status, err := mapZencoderState(note.Job.State)
	if err != nil {
		return nil, err
	}

	n := &gateway.Notification{
		ProviderJobID: strconv.FormatInt(note.Job.ID, 10),
		JobUUID:       note.Job.PassThrough,
		Status:        status,
	}
	if status == vo.EncodeStatusError {
		n.Message = strings.TrimSpace(note.Job.ErrorClass + " " + note.Job.ErrorMsg)
	}

	// 输出表：整单回调带outputs数组，单输出回调带output对象
	if len(note.Outputs) > 0 {
		n.Outputs = vo.NewOutputs()
		for _, out := range note.Outputs {
			if out.Label != "" && out.URL != "" {
				n.Outputs.Set(out.Label, out.URL)
			}
		}
	} else if note.Output != nil && note.Output.Label != "" && note.Output.URL != "" {
		n.Outputs = vo.NewOutputs()
		n.Outputs.Set(note.Output.Label, note.Output.URL)
	}

	return n, nil
}

// Ack Zencoder只要求HTTP 200，应答体内容不限
func (p *ZencoderProvider) Ack() interface{} {
	return map[string]string{"status": "ok"}
}

func mapZencoderState(state string) (vo.EncodeStatus, error) {
	switch strings.ToLower(state) {
	case "waiting", "queued", "assigning":
		return vo.EncodeStatusQueued, nil
	case "processing", "transcoding":
		return vo.EncodeStatusProcessing, nil
	case "finished":
		return vo.EncodeStatusComplete, nil
	case "failed":
		return vo.EncodeStatusError, nil
	case "cancelled":
		return vo.EncodeStatusCancelled, nil
	default:
		return "", errno.ErrNotificationInvalid
	}
}
