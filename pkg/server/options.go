package server

func defaultOptions() *Options {
	return &Options{
		Host:        "0.0.0.0",
		Port:        8000,
		SnapshotDir: "./snapshots",
		ExportDir:   "./exports",
	}
}

type Options struct {
	Host        string
	Port        int
	SnapshotDir string
	ExportDir   string
}

type Option func(*Options)

func WithHost(s string) Option {
	return func(opts *Options) {
		opts.Host = s
	}
}

func WithPort(v int) Option {
	return func(opts *Options) {
		opts.Port = v
	}
}

func WithSnapshotDir(path string) Option {
	return func(opts *Options) {
		opts.SnapshotDir = path
	}
}

func WithExportDir(path string) Option {
	return func(opts *Options) {
		opts.ExportDir = path
	}
}
