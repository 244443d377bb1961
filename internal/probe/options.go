package probe

import "time"

// Transports accepted by --transport.
const (
	TransportREST = "rest"
	TransportSSE  = "sse"
)

// Options are the pdpj-probe command line flags.
type Options struct {
	URL       string        `short:"u" long:"url" description:"proxy base url" required:"true"`
	Numero    string        `short:"n" long:"numero" description:"process number to query"`
	Action    string        `short:"a" long:"action" description:"operation to run" choice:"consultar_processo" choice:"listar_documentos" default:"consultar_processo"`
	Transport string        `short:"t" long:"transport" description:"transport to exercise" choice:"rest" choice:"sse" default:"sse"`
	Timeout   time.Duration `long:"timeout" description:"overall deadline" default:"10s"`
}
