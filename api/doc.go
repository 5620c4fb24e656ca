// Package api serves hospital search over HTTP.
//
// Routes:
//
//	GET  /v1/search        q, k, city, specialty, insurer query parameters
//	GET  /v1/facets        distinct cities, specialties and insurers
//	POST /v1/voice/search  multipart "audio" file plus lang, speech_lang, k and facet fields
//	GET  /healthz
//	GET  /metrics          Prometheus exposition
//
// Errors are returned as {"error": {"code": "...", "message": "..."}}.
package api
