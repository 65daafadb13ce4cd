package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	JobsProcessedTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "framestudio_jobs_processed_total",
		Help: "Total number of processing jobs finished, by final status",
	}, []string{"status"})

	JobDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "framestudio_job_duration_seconds",
		Help:    "Wall-clock duration of video processing jobs",
		Buckets: []float64{1, 5, 10, 30, 60, 120, 300, 600},
	})

	FramesProcessedTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "framestudio_frames_processed_total",
		Help: "Total number of frames transformed across all jobs",
	})

	ActiveJobs = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "framestudio_active_jobs",
		Help: "Number of jobs currently being processed",
	})

	UploadsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "framestudio_uploads_total",
		Help: "Total number of accepted video uploads",
	})

	UploadBytesTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "framestudio_upload_bytes_total",
		Help: "Total bytes of accepted video uploads",
	})
)
