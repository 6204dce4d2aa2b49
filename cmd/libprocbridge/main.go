//go:build cgo && jni

// Command libprocbridge is the JNI shared library loaded by the task
// manager app through System.loadLibrary. Build it with the NDK toolchain
// (jni.h comes from the NDK sysroot, or CGO_CFLAGS for a desktop JDK):
//
//	CGO_ENABLED=1 GOOS=android GOARCH=arm64 CC=$NDK_CC \
//	    go build -tags jni -buildmode=c-shared -o libprocbridge.so ./cmd/libprocbridge
package main

/*
#include <jni.h>

static inline jstring procbridge_new_string(JNIEnv *env, const jchar *chars, jsize len) {
	return (*env)->NewString(env, chars, len);
}
*/
import "C"

import (
	"unicode/utf16"
	"unsafe"

	"github.com/xmodern/procbridge/internal/bridge"
)

//export Java_com_example_taskmanager_service_NativeBridge_getProcessListJson
func Java_com_example_taskmanager_service_NativeBridge_getProcessListJson(env *C.JNIEnv, clazz C.jclass) C.jstring {
	return newJString(env, bridge.Default().ProcessListJSON())
}

//export Java_com_example_taskmanager_service_NativeBridge_hello
func Java_com_example_taskmanager_service_NativeBridge_hello(env *C.JNIEnv, clazz C.jclass) C.jstring {
	return newJString(env, bridge.Default().Hello())
}

//export Java_com_example_taskmanager_service_NativeBridge_getProcessExtendedInfo
func Java_com_example_taskmanager_service_NativeBridge_getProcessExtendedInfo(env *C.JNIEnv, clazz C.jclass, pid C.jint) C.jstring {
	return newJString(env, bridge.Default().ProcessDetailJSON(int(pid)))
}

//export Java_com_example_taskmanager_service_NativeBridge_sendSignal
func Java_com_example_taskmanager_service_NativeBridge_sendSignal(env *C.JNIEnv, clazz C.jclass, pid, signal C.jint) C.jboolean {
	if bridge.Default().SendSignal(int(pid), int(signal)) {
		return C.JNI_TRUE
	}
	return C.JNI_FALSE
}

//export Java_com_example_taskmanager_service_NativeBridge_getFreeRam
func Java_com_example_taskmanager_service_NativeBridge_getFreeRam(env *C.JNIEnv, clazz C.jclass) C.jlong {
	return C.jlong(bridge.Default().FreeRAM())
}

//export Java_com_example_taskmanager_service_NativeBridge_getMemorySnapshotJson
func Java_com_example_taskmanager_service_NativeBridge_getMemorySnapshotJson(env *C.JNIEnv, clazz C.jclass) C.jstring {
	return newJString(env, bridge.Default().MemorySnapshotJSON())
}

//export Java_com_example_taskmanager_service_NativeBridge_getCpuSnapshotJson
func Java_com_example_taskmanager_service_NativeBridge_getCpuSnapshotJson(env *C.JNIEnv, clazz C.jclass) C.jstring {
	return newJString(env, bridge.Default().CPUSnapshotJSON())
}

//export Java_com_example_taskmanager_service_NativeBridge_getDiskSnapshotJson
func Java_com_example_taskmanager_service_NativeBridge_getDiskSnapshotJson(env *C.JNIEnv, clazz C.jclass) C.jstring {
	return newJString(env, bridge.Default().DiskSnapshotJSON(""))
}

//export Java_com_example_taskmanager_service_NativeBridge_getNetSnapshotJson
func Java_com_example_taskmanager_service_NativeBridge_getNetSnapshotJson(env *C.JNIEnv, clazz C.jclass) C.jstring {
	return newJString(env, bridge.Default().NetSnapshotJSON())
}

// newJString copies s into a Java string. NewString takes UTF-16, which
// avoids the modified-UTF-8 rules of NewStringUTF for names outside the BMP.
// A nil result leaves an OutOfMemoryError pending in the caller's thread.
func newJString(env *C.JNIEnv, s string) C.jstring {
	// The trailing zero keeps &units[0] valid for the empty string; it is
	// not counted in the length
	units := append(utf16.Encode([]rune(s)), 0)
	return C.procbridge_new_string(env, (*C.jchar)(unsafe.Pointer(&units[0])), C.jsize(len(units)-1))
}

func main() {}
