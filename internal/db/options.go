package db

type dbOptions struct {
	path       string
	isReadOnly bool
	inMemory   bool
}

func (o *dbOptions) GetPath() string {
	return o.path
}

func (o *dbOptions) GetIsReadOnly() bool {
	return o.isReadOnly
}

func (o *dbOptions) GetInMemory() bool {
	return o.inMemory
}

type Option func(*dbOptions)

func WithPath(path string) Option {
	return func(opts *dbOptions) {
		opts.path = path
	}
}

func WithReadOnly(state bool) Option {
	return func(opts *dbOptions) {
		opts.isReadOnly = state
	}
}

func WithInMemory(state bool) Option {
	return func(opts *dbOptions) {
		opts.inMemory = state
	}
}
