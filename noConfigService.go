package main

// noConfigService holds on to the handler without serving it, used when
// no secret is configured
type noConfigService struct {
	handler *apiHandler
	addr    string
	stopped bool
}

func (t *noConfigService) launch(handler *apiHandler, addr string) {
	t.handler = handler
	t.addr = addr
}

func (t *noConfigService) stop() {
	t.stopped = true
}
