// Package respond defines the standard response envelope and the closed
// error-type taxonomy shared by every pipeline stage that can terminate
// a request.
//
// All API responses use one outer shape:
//
//	{
//	  "success": true,
//	  "message": "Success",
//	  "timestamp": "2025-01-02T15:04:05Z",
//	  "status_code": 200,
//	  "data": { ... }
//	}
//
// Error responses carry an "error" object with a numeric code and a type
// constant from the taxonomy, plus optional context fields (retry_after,
// supported_versions, etc.) depending on which stage produced the error.
package respond
