package observability

import (
	"bytes"
	"context"
	"crypto/rand"
	"crypto/rsa"
	"crypto/x509"
	"crypto/x509/pkix"
	"encoding/pem"
	"log/slog"
	"math/big"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
)

func testConfig() Config {
	return Config{
		ServiceName:    "document-hydrator-test",
		ServiceVersion: "0.0.1",
		Environment:    "test",
	}
}

func TestInitMeterProvider(t *testing.T) {
	mp, err := InitMeterProvider(testConfig())
	require.NoError(t, err)
	require.NotNil(t, mp)
	assert.NotNil(t, mp.Exporter())

	var buf bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&buf, nil))
	require.NoError(t, mp.Shutdown(context.Background(), logger))
	assert.Contains(t, buf.String(), "meter provider shutdown successfully")
}

func TestInitMetrics(t *testing.T) {
	mp, err := InitMeterProvider(testConfig())
	require.NoError(t, err)
	defer mp.Shutdown(context.Background(), slog.Default())

	metrics, err := InitMetrics(slog.Default())
	require.NoError(t, err)
	require.NotNil(t, metrics)

	assert.NotNil(t, metrics.callCounter)
	assert.NotNil(t, metrics.callDuration)
	assert.NotNil(t, metrics.resolveDuration)
	assert.NotNil(t, metrics.identifiers)
	assert.NotNil(t, metrics.references)
	assert.NotNil(t, metrics.lookupsSaved)
	assert.NotNil(t, metrics.fetchQueries)
	assert.NotNil(t, metrics.fetchRows)
	assert.NotNil(t, metrics.fetchMisses)
}

func TestNilHydrationMetricsIsNoop(t *testing.T) {
	var metrics *HydrationMetrics
	assert.NotPanics(t, func() {
		metrics.RecordHydration(context.Background(), HydrationStats{Identifiers: 2}, OutcomeSuccess)
		metrics.RecordFetch(context.Background(), "users", 1, 2, 0)
	})
}

func TestParseOTLPProtocol(t *testing.T) {
	tests := []struct {
		input   string
		want    otlpProtocol
		wantErr bool
	}{
		{input: "", want: otlpProtocolGRPC},
		{input: "grpc", want: otlpProtocolGRPC},
		{input: " GRPC ", want: otlpProtocolGRPC},
		{input: "http", want: otlpProtocolHTTP},
		{input: "http/protobuf", want: otlpProtocolHTTP},
		{input: "http/json", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got, err := parseOTLPProtocol(tt.input)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestTraceSamplerForRatio(t *testing.T) {
	assert.Equal(t, sdktrace.NeverSample().Description(), traceSamplerForRatio(0).Description())
	assert.Equal(t, sdktrace.NeverSample().Description(), traceSamplerForRatio(-1).Description())
	assert.Equal(t, sdktrace.AlwaysSample().Description(), traceSamplerForRatio(1).Description())
	assert.Equal(t, sdktrace.AlwaysSample().Description(), traceSamplerForRatio(2).Description())
	assert.Equal(t,
		sdktrace.ParentBased(sdktrace.TraceIDRatioBased(0.25)).Description(),
		traceSamplerForRatio(0.25).Description(),
	)
}

func TestIsHTTPEndpointURL(t *testing.T) {
	assert.True(t, isHTTPEndpointURL("http://collector:4318"))
	assert.True(t, isHTTPEndpointURL("https://collector:4318/v1/traces"))
	assert.False(t, isHTTPEndpointURL("collector:4317"))
}

func TestTraceOptions_RejectBadTLS(t *testing.T) {
	cfg := OTLPExporterConfig{Endpoint: "collector:4317", TLSCertFile: "/nonexistent/ca.pem"}

	_, err := traceGRPCOptions(cfg)
	assert.Error(t, err)
	_, err = traceHTTPOptions(cfg)
	assert.Error(t, err)
	_, err = logGRPCOptions(cfg)
	assert.Error(t, err)
	_, err = logHTTPOptions(cfg)
	assert.Error(t, err)
}

func TestTraceOptions_Insecure(t *testing.T) {
	cfg := OTLPExporterConfig{
		Endpoint:         "collector:4317",
		Insecure:         true,
		Headers:          map[string]string{"x-api-key": "secret"},
		Timeout:          time.Second,
		Compression:      "gzip",
		RetryEnabled:     true,
		RetryMaxAttempts: 3,
	}

	grpcOpts, err := traceGRPCOptions(cfg)
	require.NoError(t, err)
	assert.Len(t, grpcOpts, 6)

	httpOpts, err := logHTTPOptions(cfg)
	require.NoError(t, err)
	assert.Len(t, httpOpts, 6)
}

func TestBuildTLSConfig_Default(t *testing.T) {
	tlsConfig, err := buildTLSConfig(OTLPExporterConfig{})
	require.NoError(t, err)
	assert.Nil(t, tlsConfig.RootCAs)
	assert.Empty(t, tlsConfig.Certificates)
}

func TestBuildTLSConfig_WithCA(t *testing.T) {
	dir := t.TempDir()
	certPath, _ := writeSelfSignedPair(t, dir)

	tlsConfig, err := buildTLSConfig(OTLPExporterConfig{TLSCertFile: certPath})
	require.NoError(t, err)
	assert.NotNil(t, tlsConfig.RootCAs)
}

func TestBuildTLSConfig_InvalidCA(t *testing.T) {
	path := filepath.Join(t.TempDir(), "ca.pem")
	require.NoError(t, os.WriteFile(path, []byte("not a certificate"), 0o600))

	_, err := buildTLSConfig(OTLPExporterConfig{TLSCertFile: path})
	assert.Error(t, err)
}

func TestBuildTLSConfig_ClientCert(t *testing.T) {
	dir := t.TempDir()
	certPath, keyPath := writeSelfSignedPair(t, dir)

	tlsConfig, err := buildTLSConfig(OTLPExporterConfig{
		TLSClientCertFile: certPath,
		TLSClientKeyFile:  keyPath,
	})
	require.NoError(t, err)
	assert.Len(t, tlsConfig.Certificates, 1)
}

func TestBuildTLSConfig_ClientCertRequiresKey(t *testing.T) {
	_, err := buildTLSConfig(OTLPExporterConfig{TLSClientCertFile: "/tmp/cert.pem"})
	assert.Error(t, err)
}

func writeSelfSignedPair(t *testing.T, dir string) (string, string) {
	t.Helper()

	key, err := rsa.GenerateKey(rand.Reader, 2048)
	require.NoError(t, err)

	template := &x509.Certificate{
		SerialNumber:          big.NewInt(1),
		Subject:               pkix.Name{CommonName: "collector"},
		NotBefore:             time.Now().Add(-time.Hour),
		NotAfter:              time.Now().Add(time.Hour),
		IsCA:                  true,
		BasicConstraintsValid: true,
		KeyUsage:              x509.KeyUsageCertSign | x509.KeyUsageDigitalSignature,
	}
	der, err := x509.CreateCertificate(rand.Reader, template, template, &key.PublicKey, key)
	require.NoError(t, err)

	certPath := filepath.Join(dir, "cert.pem")
	keyPath := filepath.Join(dir, "key.pem")
	certPEM := pem.EncodeToMemory(&pem.Block{Type: "CERTIFICATE", Bytes: der})
	keyPEM := pem.EncodeToMemory(&pem.Block{Type: "RSA PRIVATE KEY", Bytes: x509.MarshalPKCS1PrivateKey(key)})
	require.NoError(t, os.WriteFile(certPath, certPEM, 0o600))
	require.NoError(t, os.WriteFile(keyPath, keyPEM, 0o600))
	return certPath, keyPath
}
