package handlers

import (
	"html/template"
	"log"
	"net/http"
	"os"
)

type DocsHandler struct{}

func NewDocsHandler() *DocsHandler {
	return &DocsHandler{}
}

func (h *DocsHandler) ServePrivacyPolicy(w http.ResponseWriter, r *http.Request) {
	const privacyHTML = `
	<!DOCTYPE html>
	<html lang="en">
	<head>
		<meta charset="UTF-8">
		<meta name="viewport" content="width=device-width, initial-scale=1.0">
		<title>Privacy Policy - StepLeague</title>
		<style>
			body {
				font-family: 'Helvetica Neue', Helvetica, Arial, sans-serif;
				line-height: 1.6;
				color: #333;
				max-width: 800px;
				margin: 0 auto;
				padding: 20px;
				background-color: #f9f9f9;
			}
			.container {
				background-color: #fff;
				padding: 40px;
				border-radius: 8px;
				box-shadow: 0 2px 4px rgba(0,0,0,0.1);
			}
			h1 { color: #2c3e50; border-bottom: 2px solid #eee; padding-bottom: 10px; }
			h2 { color: #34495e; margin-top: 30px; }
			.date { color: #7f8c8d; font-style: italic; margin-bottom: 20px; }
		</style>
	</head>
	<body>
		<div class="container">
			<h1>Privacy Policy</h1>
			<div class="date">Last updated: August 20, 2026</div>

			<p>Welcome to StepLeague. This Privacy Policy explains how we collect, use, and protect your information when you use our app.</p>

			<h2>1. Information We Collect</h2>
			<p>When you sign in, we receive your name, email address, and profile picture from your identity provider. While you use the app we store the step counts you log, the screenshots you submit for verification, the leagues you join, and basic usage analytics.</p>
			<p><strong>We do not access your contacts, camera roll, microphone, or location.</strong></p>

			<h2>2. How We Use Your Information</h2>
			<p>Your data powers your stats, streaks, league leaderboards, and the share messages you choose to post. Analytics and crash reports help us keep the app working.</p>

			<h2>3. Sharing Your Information</h2>
			<p>Leaderboards show your username, profile picture, and weekly step totals to other members of your leagues. Nothing else is visible to other users, and we never sell your data.</p>

			<h2>4. Your Rights</h2>
			<p>You can delete your account from the app at any time, which removes your profile, step history, and submissions.</p>

			<h2>5. Contact Us</h2>
			<p>Questions about this policy: <a href="mailto:support@stepleague.app">support@stepleague.app</a></p>
		</div>
	</body>
	</html>
	`

	w.Header().Set("Content-Type", "text/html; charset=utf-8")

	tmpl, err := template.New("privacy").Parse(privacyHTML)
	if err != nil {
		http.Error(w, "Could not load privacy policy", http.StatusInternalServerError)
		return
	}

	tmpl.Execute(w, nil)
}

func (h *DocsHandler) ServeTermsOfService(w http.ResponseWriter, r *http.Request) {
	const termsHTML = `
	<!DOCTYPE html>
	<html lang="en">
	<head>
		<meta charset="UTF-8">
		<meta name="viewport" content="width=device-width, initial-scale=1.0">
		<title>Terms of Service - StepLeague</title>
		<style>
			body {
				font-family: 'Helvetica Neue', Helvetica, Arial, sans-serif;
				line-height: 1.6;
				color: #333;
				max-width: 800px;
				margin: 0 auto;
				padding: 20px;
				background-color: #f9f9f9;
			}
			.container {
				background-color: #fff;
				padding: 40px;
				border-radius: 8px;
				box-shadow: 0 2px 4px rgba(0,0,0,0.1);
			}
			h1 { color: #2c3e50; border-bottom: 2px solid #eee; padding-bottom: 10px; }
			h2 { color: #34495e; margin-top: 30px; }
			.date { color: #7f8c8d; font-style: italic; margin-bottom: 20px; }
		</style>
	</head>
	<body>
		<div class="container">
			<h1>Terms of Service</h1>
			<div class="date">Last updated: August 20, 2026</div>

			<p>By using StepLeague you agree to these Terms of Service.</p>

			<h2>1. Accounts</h2>
			<p>You need an account to use StepLeague. You are responsible for keeping it secure, and we may suspend accounts that violate these Terms.</p>

			<h2>2. Fair Play</h2>
			<p>Leagues only work if everyone plays fair. You agree to log your real step counts and not to manipulate screenshots submitted for verification. We may remove entries or restrict accounts that cheat.</p>

			<h2>3. Content</h2>
			<p>Share messages and cards you generate are yours to post wherever you like. The StepLeague name, design, and stats formats belong to us.</p>

			<h2>4. Disclaimer</h2>
			<p>StepLeague is provided as-is. Errors, downtime, or data losses may occur, and the app is not medical advice.</p>

			<h2>5. Contact Us</h2>
			<p>Questions about these Terms: <a href="mailto:support@stepleague.app">support@stepleague.app</a></p>
		</div>
	</body>
	</html>
	`

	w.Header().Set("Content-Type", "text/html; charset=utf-8")

	tmpl, err := template.New("terms").Parse(termsHTML)
	if err != nil {
		http.Error(w, "Could not load terms of service", http.StatusInternalServerError)
		return
	}

	tmpl.Execute(w, nil)
}

func (h *DocsHandler) GetAppMinVersion(w http.ResponseWriter, r *http.Request) {
	appAndroidMinVersion := os.Getenv("ANDROID_MIN_VERSION")
	if appAndroidMinVersion == "" {
		log.Fatal("ANDROID_MIN_VERSION environment variable is not set")
	}

	appIOSMinVersion := os.Getenv("IOS_MIN_VERSION")
	if appIOSMinVersion == "" {
		log.Fatal("IOS_MIN_VERSION environment variable is not set")
	}

	type MinVersion struct {
		MinAndroidVersion string `json:"min_android_version_code"`
		MinIOSVersion     string `json:"min_ios_version_code"`
		UpdateMessage     string `json:"update_message"`
	}

	minVers := &MinVersion{
		MinAndroidVersion: appAndroidMinVersion,
		MinIOSVersion:     appIOSMinVersion,
		UpdateMessage:     "An important update is available! Please update to continue using the app.",
	}

	respondWithJSON(w, http.StatusOK, minVers)
}
