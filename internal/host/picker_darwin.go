//go:build darwin

package host

/*
#cgo CFLAGS: -x objective-c
#cgo LDFLAGS: -framework Cocoa

#import <Cocoa/Cocoa.h>
#import <stdlib.h>

const char* showOpenFilePanel(const char* ext) {
    __block const char* result = NULL;
    NSString* extension = [NSString stringWithUTF8String:ext];

    // Use dispatch_async with a semaphore to avoid deadlock with systray
    dispatch_semaphore_t sem = dispatch_semaphore_create(0);

    dispatch_async(dispatch_get_main_queue(), ^{
        @autoreleasepool {
            [NSApp activateIgnoringOtherApps:YES];

            NSOpenPanel* panel = [NSOpenPanel openPanel];
            [panel setCanChooseFiles:YES];
            [panel setCanChooseDirectories:NO];
            [panel setAllowsMultipleSelection:NO];
            if ([extension length] > 0) {
                [panel setAllowedFileTypes:@[extension]];
            }
            [panel setMessage:@"Choose a clipboard history file to import"];
            [panel setPrompt:@"Import"];
            [panel setLevel:NSFloatingWindowLevel];

            if ([panel runModal] == NSModalResponseOK) {
                NSURL* url = [[panel URLs] firstObject];
                if (url != nil) {
                    result = strdup([[url path] UTF8String]);
                }
            }
        }
        dispatch_semaphore_signal(sem);
    });

    dispatch_semaphore_wait(sem, DISPATCH_TIME_FOREVER);

    return result;
}

void freeString(const char* str) {
    free((void*)str);
}
*/
import "C"

import (
	"context"
	"strings"
	"unsafe"
)

// NativePicker shows the macOS open panel
type NativePicker struct{}

// PickFile implements FilePicker. The panel is modal; ctx is only checked
// before it opens.
func (NativePicker) PickFile(ctx context.Context, accept string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}

	ext := C.CString(strings.TrimPrefix(accept, "."))
	defer C.free(unsafe.Pointer(ext))

	cstr := C.showOpenFilePanel(ext)
	if cstr == nil {
		return "", ErrCancelled
	}
	defer C.freeString(cstr)
	return C.GoString(cstr), nil
}
