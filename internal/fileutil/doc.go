// Package fileutil finds the service directories a devup run builds images
// for.
package fileutil
