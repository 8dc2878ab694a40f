// Package service is the operation surface of the sensemaker core.
//
// Service composes the catalog, tray configuration store, applet registry and
// method engine behind a single facade, so the HTTP handlers, the bundle
// watcher and the CLI all call the same code path.
//
// # Operations
//
// Tray configurations: GetConfig, ListConfigs, SetConfig, UpdateConfig,
// DeleteConfig, GetDefaultConfig and SetDefaultConfig.
//
// Applets: RegisterApplet, GetApplet, ListApplets and AppletsForResourceDef.
//
// Methods: RunMethod, MethodsForDimension, UpdateMethod and DeleteMethod.
//
// # Event System
//
// Every successful write publishes an Event on the EventBus. Subscribers that
// fall behind miss events rather than block a write.
package service
