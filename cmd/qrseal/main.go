package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/fatih/color"

	"qrseal/pkg/models"
	"qrseal/pkg/pdfstamp"
	"qrseal/pkg/secureqr"
)

var (
	// Color printers
	infoColor    = color.New(color.FgBlue).SprintFunc()
	successColor = color.New(color.FgGreen).SprintFunc()
	warningColor = color.New(color.FgYellow).SprintFunc()
	errorColor   = color.New(color.FgRed).SprintFunc()
	alertColor   = color.New(color.FgRed, color.Bold).SprintFunc()
)

func printInfo(format string, args ...interface{}) {
	fmt.Printf("%s %s\n", infoColor("[*]"), fmt.Sprintf(format, args...))
}

func printSuccess(format string, args ...interface{}) {
	fmt.Printf("%s %s\n", successColor("[+]"), fmt.Sprintf(format, args...))
}

func printWarning(format string, args ...interface{}) {
	fmt.Printf("%s %s\n", warningColor("[!]"), fmt.Sprintf(format, args...))
}

func printError(format string, args ...interface{}) {
	fmt.Printf("%s %s\n", errorColor("[-]"), fmt.Sprintf(format, args...))
}

func printAlert(format string, args ...interface{}) {
	fmt.Printf("%s %s\n", alertColor("[!!!]"), fmt.Sprintf(format, args...))
}

func main() {
	var (
		genData    = flag.String("generate", "", "Data to encode into a new secure QR seal")
		docID      = flag.String("id", "", "Document ID used to seed the security features")
		outPath    = flag.String("out", "seal.png", "Output path for the generated seal or stamped PDF")
		metaPath   = flag.String("meta", "seal_meta.json", "Path of the security metadata JSON")
		verifyPath = flag.String("verify", "", "Path to a candidate image to verify")
		stampPath  = flag.String("stamp", "", "Path to a PDF to stamp with an existing seal")
		qrPath     = flag.String("qr", "", "Path to the seal PNG used when stamping")
		boxSize    = flag.Int("boxsize", 10, "Pixels per QR module")
		border     = flag.Int("border", 4, "Quiet zone width in modules")
		jsonOut    = flag.Bool("json", false, "Print the verification report as raw JSON")
	)

	flag.Parse()

	fmt.Println("qrseal v1.0.0")
	fmt.Println("Anti-counterfeit QR seal generator and detector")
	fmt.Println("---------------------------------")

	switch {
	case *genData != "":
		runGenerate(*genData, *docID, *outPath, *metaPath, *boxSize, *border)
	case *verifyPath != "":
		runVerify(*verifyPath, *metaPath, *jsonOut)
	case *stampPath != "":
		runStamp(*stampPath, *qrPath, *outPath)
	default:
		fmt.Println("Usage:")
		fmt.Println("  qrseal -generate <data> -id <document-id> [-out seal.png] [-meta seal_meta.json]")
		fmt.Println("  qrseal -verify <image> -meta <seal_meta.json> [-json]")
		fmt.Println("  qrseal -stamp <document.pdf> -qr <seal.png> -out <stamped.pdf>")
		flag.PrintDefaults()
		os.Exit(1)
	}
}

func runGenerate(data, docID, outPath, metaPath string, boxSize, border int) {
	if docID == "" {
		printError("A document ID is required: -id <document-id>")
		os.Exit(1)
	}

	printInfo("Generating secure QR seal for document %s", docID)
	startTime := time.Now()

	png, meta, err := secureqr.NewGenerator().Generate(data, docID, secureqr.Options{BoxSize: boxSize, Border: border})
	if err != nil {
		printError("Generation failed: %v", err)
		os.Exit(1)
	}

	if err := os.WriteFile(outPath, png, 0644); err != nil {
		printError("Failed to write seal image: %v", err)
		os.Exit(1)
	}
	metaJSON, err := json.MarshalIndent(meta, "", "  ")
	if err != nil {
		printError("Failed to encode metadata: %v", err)
		os.Exit(1)
	}
	if err := os.WriteFile(metaPath, metaJSON, 0644); err != nil {
		printError("Failed to write metadata: %v", err)
		os.Exit(1)
	}

	printSuccess("Seal written to %s (%dx%d)", outPath, meta.ImageSize[1], meta.ImageSize[0])
	printSuccess("Metadata written to %s", metaPath)
	printWarning("Keep the metadata file private; anyone holding it can study the embedded features")
	printInfo("Generation completed in %v", time.Since(startTime))
}

func runVerify(imagePath, metaPath string, jsonOut bool) {
	printInfo("Verifying candidate image: %s", imagePath)

	imageBytes, err := os.ReadFile(imagePath)
	if err != nil {
		printError("Failed to read image: %v", err)
		os.Exit(1)
	}
	metaJSON, err := os.ReadFile(metaPath)
	if err != nil {
		printError("Failed to read metadata: %v", err)
		os.Exit(1)
	}
	var meta models.SecurityMetadata
	if err := json.Unmarshal(metaJSON, &meta); err != nil {
		printError("Failed to parse metadata: %v", err)
		os.Exit(1)
	}

	startTime := time.Now()
	report, err := secureqr.NewDetector().VerifyBytes(imageBytes, meta)
	if err != nil {
		printError("Verification failed: %v", err)
		os.Exit(1)
	}

	if jsonOut {
		out, _ := json.MarshalIndent(report, "", "  ")
		fmt.Println(string(out))
	} else {
		displayReport(report)
	}
	printInfo("Verification completed in %v", time.Since(startTime))

	if report.Verdict == models.VerdictCounterfeit {
		os.Exit(2)
	}
}

func runStamp(pdfPath, qrPath, outPath string) {
	if qrPath == "" {
		printError("A seal image is required: -qr <seal.png>")
		os.Exit(1)
	}

	printInfo("Stamping %s with seal %s", pdfPath, qrPath)

	pdfBytes, err := os.ReadFile(pdfPath)
	if err != nil {
		printError("Failed to read PDF: %v", err)
		os.Exit(1)
	}
	qrPNG, err := os.ReadFile(qrPath)
	if err != nil {
		printError("Failed to read seal image: %v", err)
		os.Exit(1)
	}

	stamped, err := pdfstamp.StampLastPage(pdfBytes, qrPNG)
	if err != nil {
		printError("Stamping failed: %v", err)
		os.Exit(1)
	}
	if err := os.WriteFile(outPath, stamped, 0644); err != nil {
		printError("Failed to write stamped PDF: %v", err)
		os.Exit(1)
	}
	printSuccess("Stamped PDF written to %s", outPath)
}

func displayReport(report models.VerificationReport) {
	fmt.Println("\n--- Verification Report ---")

	switch report.Verdict {
	case models.VerdictAuthentic:
		printSuccess("AUTHENTIC (score %.2f)", report.AuthenticityScore)
	case models.VerdictSuspicious:
		printWarning("SUSPICIOUS (score %.2f)", report.AuthenticityScore)
	default:
		printAlert("COUNTERFEIT (score %.2f)", report.AuthenticityScore)
	}

	d := report.Details
	fmt.Printf("Ghost dots:          %.2f (%s, %d/%d detected)\n",
		d.GhostDots.Score, d.GhostDots.Status, d.GhostDots.Detected, d.GhostDots.Expected)
	fmt.Printf("Frequency watermark: %.2f (%s, correlation %.4f)\n",
		d.FrequencyWatermark.Score, d.FrequencyWatermark.Status, d.FrequencyWatermark.Correlation)
	fmt.Printf("Pixel fingerprint:   %.2f (%s, variance %.2f)\n",
		d.PixelFingerprint.Score, d.PixelFingerprint.Status, d.PixelFingerprint.Variance)
	fmt.Printf("Image sharpness:     %.2f (%s)\n", d.Metadata.Score, d.Metadata.Status)

	if len(report.Warnings) > 0 {
		fmt.Println("\nWarnings:")
		for i, warning := range report.Warnings {
			fmt.Printf("%d. %s\n", i+1, warning)
		}
	}

	fmt.Println("---------------------------")
}
