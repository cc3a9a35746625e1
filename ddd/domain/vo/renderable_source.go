package vo

// RenderableSource 一个可供播放器使用的视频源
type RenderableSource struct {
	MimeType string `json:"mime_type"`
	URL      string `json:"url"`
}
