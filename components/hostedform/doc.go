// Package hostedform serves stored form definitions over HTTP: a
// rendered form page, a state endpoint that re-resolves visibility and
// validity for in-progress answers, and a submission endpoint that
// persists the filtered visible subset once it validates.
//
// Routes live under {basePath}/forms/:
//
//	GET  /forms/{id}              rendered form (classic by default)
//	POST /forms/{id}/state        {answers} -> {fields, cursor, isValid, errors}
//	POST /forms/{id}/submissions  {answers, metadata} -> {success, redirectUrl?, submissionId}
//
// Unknown form ids respond 404, wrong methods 405, and invalid
// submissions 422, all as JSON.
package hostedform
