package request

import (
	"strconv"

	"cacheproxy/pkg/constants"
)

// Rewrite applies the mandatory proxy header rewrites of spec §4.3 in
// place on r.Message before the request is sent upstream:
//
//   - set Connection: close
//   - set Forwarded: <client-ip>
//   - set Via: 1.1 <proxy-identifier>
//   - remove Proxy-Connection, Proxy-Authorization, Proxy-Authenticate
//   - set Host from the request's resolved host (+:port iff non-default)
func Rewrite(r *Request, clientIP string) {
	h := r.Message.Headers

	h.Set("Connection", "close")
	h.Set("Forwarded", clientIP)
	h.Set("Via", "1.1 "+constants.ViaIdentifier)

	h.Remove("Proxy-Connection")
	h.Remove("Proxy-Authorization")
	h.Remove("Proxy-Authenticate")

	if r.Port > 0 && r.Port != constants.DefaultOriginPort {
		h.Set("Host", r.Host+":"+strconv.Itoa(r.Port))
	} else {
		h.Set("Host", r.Host)
	}
}
