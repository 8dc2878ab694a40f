// Package handler implements the JSON HTTP API of the sensemaker service.
//
// # Routes
//
// Tray configurations:
//
//	GET    /api/tray-configs
//	POST   /api/tray-configs
//	GET    /api/tray-configs/{address}
//	PUT    /api/tray-configs/{revision}
//	DELETE /api/tray-configs/{revision}
//	GET    /api/resource-defs/{address}/default-tray-config
//	PUT    /api/resource-defs/{address}/default-tray-config
//
// Applets:
//
//	GET    /api/applets
//	POST   /api/applets                      (JSON or YAML bundle)
//	GET    /api/applets/{name}               (?format=yaml)
//	GET    /api/resource-defs/{address}/applets
//
// Methods and assessments:
//
//	POST   /api/methods/run
//	PUT    /api/methods/{revision}
//	DELETE /api/methods/{revision}
//	GET    /api/dimensions/{address}/methods?role=input|output
//	POST   /api/assessments
//	GET    /api/resources/{address}/assessments?dimension=...
//	GET    /api/assessment-controls
//	POST   /api/assessment-controls
//
// # Response Format
//
// Success responses return JSON with 200 or 201. Lookups of something that
// does not exist return 404. Errors return {error, code, details}; the
// status follows the fault code (see statusFor).
package handler
